package model

import (
	"context"
	"fmt"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel is a scripted chat model for tests: each Generate call pops
// the next message from Responses and records the input it was given.
// WithTools returns the same instance so tool binding is a no-op.
type MockChatModel struct {
	mu        sync.Mutex
	Responses []*schema.Message
	Err       error // returned by every Generate call when set

	Calls      [][]*schema.Message
	BoundTools []*schema.ToolInfo
}

func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]*schema.Message, len(input))
	copy(snapshot, input)
	m.Calls = append(m.Calls, snapshot)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, fmt.Errorf("mock chat model: no scripted response for call %d", len(m.Calls))
	}
	out := m.Responses[0]
	m.Responses = m.Responses[1:]
	return out, nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BoundTools = tools
	return m, nil
}

var _ einomodel.ToolCallingChatModel = (*MockChatModel)(nil)
