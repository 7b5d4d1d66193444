package repository

import (
	"context"
	"sort"

	"github.com/spec-kit/processflow/internal/domain"
)

// ChatRepository stores client messages and their conversation summaries.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	UpdateMessage(ctx context.Context, msg *domain.ChatMessage) error
	GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error)
	// ListMessages returns a client's messages oldest first.
	ListMessages(ctx context.Context, tenantID, clientID string) ([]domain.ChatMessage, error)

	// SaveConversation inserts or replaces a conversation summary.
	SaveConversation(ctx context.Context, conv *domain.ChatConversation) error
	GetConversation(ctx context.Context, id string) (*domain.ChatConversation, error)
	GetConversationByClient(ctx context.Context, tenantID, clientID string) (*domain.ChatConversation, error)
	// ListConversations returns summaries, most recent activity first.
	ListConversations(ctx context.Context, tenantID string) ([]domain.ChatConversation, error)
}

type memoryChatRepository struct {
	messages      *table[domain.ChatMessage]
	conversations *table[domain.ChatConversation]
}

// NewMemoryChatRepository returns an in-memory implementation.
func NewMemoryChatRepository() ChatRepository {
	return &memoryChatRepository{
		messages:      newTable[domain.ChatMessage](nil),
		conversations: newTable[domain.ChatConversation](nil),
	}
}

func (r *memoryChatRepository) CreateMessage(_ context.Context, msg *domain.ChatMessage) error {
	return r.messages.insert(msg.ID, msg, nil)
}

func (r *memoryChatRepository) UpdateMessage(_ context.Context, msg *domain.ChatMessage) error {
	return r.messages.replace(msg.ID, msg, nil)
}

func (r *memoryChatRepository) GetMessage(_ context.Context, id string) (*domain.ChatMessage, error) {
	return r.messages.get(id)
}

func (r *memoryChatRepository) ListMessages(_ context.Context, tenantID, clientID string) ([]domain.ChatMessage, error) {
	msgs := r.messages.scan(func(m *domain.ChatMessage) bool {
		return m.TenantID == tenantID && m.ClientID == clientID
	})
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs, nil
}

func (r *memoryChatRepository) SaveConversation(_ context.Context, conv *domain.ChatConversation) error {
	err := r.conversations.replace(conv.ID, conv, nil)
	if err == ErrNotFound {
		return r.conversations.insert(conv.ID, conv, func(existing *domain.ChatConversation) bool {
			return existing.TenantID == conv.TenantID && existing.ClientID == conv.ClientID
		})
	}
	return err
}

func (r *memoryChatRepository) GetConversation(_ context.Context, id string) (*domain.ChatConversation, error) {
	return r.conversations.get(id)
}

func (r *memoryChatRepository) GetConversationByClient(_ context.Context, tenantID, clientID string) (*domain.ChatConversation, error) {
	return r.conversations.find(func(c *domain.ChatConversation) bool {
		return c.TenantID == tenantID && c.ClientID == clientID
	})
}

func (r *memoryChatRepository) ListConversations(_ context.Context, tenantID string) ([]domain.ChatConversation, error) {
	convs := r.conversations.scan(func(c *domain.ChatConversation) bool { return c.TenantID == tenantID })
	sort.SliceStable(convs, func(i, j int) bool { return convs[i].LastMessageAt.After(convs[j].LastMessageAt) })
	return convs, nil
}
