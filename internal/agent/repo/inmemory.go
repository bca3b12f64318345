package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/eduzen-bot/server/internal/agent/model"
)

// InMemoryConversationRepository keeps per-thread message sequences in
// process memory. It is the default when Redis is not configured, and the
// repository used by tests. History does not survive a restart.
type InMemoryConversationRepository struct {
	mu      sync.RWMutex
	threads map[string][]*schema.Message
}

func NewInMemoryConversationRepository() *InMemoryConversationRepository {
	return &InMemoryConversationRepository{threads: make(map[string][]*schema.Message)}
}

func (r *InMemoryConversationRepository) AddMessage(ctx context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[conversationID] = append(r.threads[conversationID], message)
	return nil
}

func (r *InMemoryConversationRepository) LoadHistory(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.threads[conversationID]
	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)
	return &model.ConversationHistory{ConversationID: conversationID, Messages: out}, nil
}

// ClearHistory resets the thread to empty. Unknown threads are already empty,
// so the call is idempotent.
func (r *InMemoryConversationRepository) ClearHistory(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, conversationID)
	return nil
}

func (r *InMemoryConversationRepository) GetMessageCount(ctx context.Context, conversationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads[conversationID]), nil
}

var _ model.ConversationRepository = (*InMemoryConversationRepository)(nil)
