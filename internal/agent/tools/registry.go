// Package tools declares the closed set of actions the model may invoke:
// recording a student lead, a workshop lead, or feedback. Each tool writes to
// the lead store and answers with a user-facing status message that the
// second completion call folds into the final reply.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/leads"
)

// Declared tool names. The set is fixed at process start.
const (
	ToolRecordStudentsLead  = "record_students_lead"
	ToolRecordWorkshopsLead = "record_workshops_lead"
	ToolRecordFeedback      = "record_feedback"
)

// ErrUnknownTool is returned when the model names a tool outside the declared
// set. Callers surface it as a tool-execution failure rather than skipping
// the call silently.
var ErrUnknownTool = errors.New("unknown tool")

// Status is the structured tool result. Message is the text the end user
// reads; it must reach the final assistant reply unchanged in spirit.
type Status struct {
	Status  string `json:"status"` // "recorded" or "failed"
	Message string `json:"message"`
}

const (
	statusRecorded = "recorded"
	statusFailed   = "failed"
)

// Registry binds the declared tool names to their handlers at construction
// time.
type Registry struct {
	students  tool.InvokableTool
	workshops tool.InvokableTool
	feedback  tool.InvokableTool
}

func NewRegistry(store leads.Store) *Registry {
	return &Registry{
		students:  createRecordStudentsLeadTool(store),
		workshops: createRecordWorkshopsLeadTool(store),
		feedback:  createRecordFeedbackTool(store),
	}
}

// Tools returns the executable tools for graph tool nodes.
func (r *Registry) Tools() []tool.BaseTool {
	return []tool.BaseTool{r.students, r.workshops, r.feedback}
}

// Infos returns the tool declarations to attach to model calls.
func (r *Registry) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	ts := r.Tools()
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Execute dispatches a model-requested call by declared name. Unknown names
// fail with ErrUnknownTool.
func (r *Registry) Execute(ctx context.Context, name, argumentsJSON string) (string, error) {
	switch name {
	case ToolRecordStudentsLead:
		return r.students.InvokableRun(ctx, argumentsJSON)
	case ToolRecordWorkshopsLead:
		return r.workshops.InvokableRun(ctx, argumentsJSON)
	case ToolRecordFeedback:
		return r.feedback.InvokableRun(ctx, argumentsJSON)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
}
