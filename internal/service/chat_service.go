package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/ids"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

const maxChatBody = 4000

// ChatService keeps client messages and their conversation summaries in step.
// The unread counter of a conversation always equals its unread
// client-authored messages.
type ChatService struct {
	mu         sync.Mutex
	chat       repository.ChatRepository
	clients    repository.ClientRepository
	dispatcher events.Dispatcher
	now        Clock
}

// ChatDependencies bundles the chat service collaborators.
type ChatDependencies struct {
	ChatRepo   repository.ChatRepository
	ClientRepo repository.ClientRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		chat:       deps.ChatRepo,
		clients:    deps.ClientRepo,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// SenderFor returns the side of a conversation the actor writes as.
func SenderFor(actor *domain.User) domain.ChatSender {
	if actor.Role == domain.RoleReader {
		return domain.SenderClient
	}
	return domain.SenderAdmin
}

// Send appends a message to a client's conversation, creating the
// conversation on first contact. An empty sender is derived from the actor.
func (s *ChatService) Send(ctx context.Context, actor *domain.User, clientID, body string, sender domain.ChatSender) (*domain.ChatMessage, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	if sender == "" {
		sender = SenderFor(actor)
	}
	if sender != SenderFor(actor) {
		return nil, apperrors.NewForbidden("cannot send as " + string(sender))
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	if len(body) > maxChatBody {
		return nil, apperrors.NewValidationError("message body too long", map[string]any{"max_length": maxChatBody})
	}
	client, err := s.visibleClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	msg, err := s.sendLocked(ctx, client, body, sender)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventChatMessageSent,
		TenantID:   msg.TenantID,
		ResourceID: msg.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.ChatMessagePayload{
			ClientID:    msg.ClientID,
			Sender:      msg.Sender,
			BodyPreview: stringPreview(msg.Body, 80),
		},
	})
	return msg, nil
}

func (s *ChatService) sendLocked(ctx context.Context, client *domain.Client, body string, sender domain.ChatSender) (*domain.ChatMessage, error) {
	now := s.now()
	msg := &domain.ChatMessage{
		ID:         ids.At(now),
		TenantID:   client.TenantID,
		ClientID:   client.ID,
		ClientName: client.Name,
		Sender:     sender,
		Body:       body,
		SentAt:     now,
	}
	conv, err := s.chat.GetConversationByClient(ctx, client.TenantID, client.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		conv = &domain.ChatConversation{
			ID:       uuid.NewString(),
			TenantID: client.TenantID,
			ClientID: client.ID,
			Active:   true,
		}
	case err != nil:
		return nil, apperrors.MapError(err)
	}
	conv.ClientName = client.Name
	conv.LastMessage = body
	conv.LastMessageAt = now
	if sender == domain.SenderClient {
		conv.UnreadCount++
	}

	if err := s.chat.CreateMessage(ctx, msg); err != nil {
		return nil, mapRepoErr(err, "message", msg.ID)
	}
	if err := s.chat.SaveConversation(ctx, conv); err != nil {
		return nil, mapRepoErr(err, "conversation", conv.ID)
	}
	return msg, nil
}

// Messages returns a client's messages, oldest first.
func (s *ChatService) Messages(ctx context.Context, actor *domain.User, clientID string) ([]domain.ChatMessage, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	if _, err := s.visibleClient(ctx, actor, clientID); err != nil {
		return nil, err
	}
	msgs, err := s.chat.ListMessages(ctx, actor.TenantID, clientID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

// Conversations lists the conversation summaries visible to the actor.
func (s *ChatService) Conversations(ctx context.Context, actor *domain.User) ([]domain.ChatConversation, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	convs, err := s.chat.ListConversations(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, restricted := clientScope(actor); !restricted {
		return convs, nil
	}
	visible := convs[:0]
	for _, c := range convs {
		if actor.IsLinkedTo(c.ClientID) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// MarkConversationRead zeroes the unread counter and flips every unread
// client message of the conversation to read.
func (s *ChatService) MarkConversationRead(ctx context.Context, actor *domain.User, conversationID string) (*domain.ChatConversation, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	if SenderFor(actor) != domain.SenderAdmin {
		return nil, apperrors.NewForbidden("only staff mark conversations read")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chat.ListMessages(ctx, conv.TenantID, conv.ClientID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range msgs {
		if msgs[i].Sender != domain.SenderClient || msgs[i].Read {
			continue
		}
		msgs[i].Read = true
		if err := s.chat.UpdateMessage(ctx, &msgs[i]); err != nil {
			return nil, mapRepoErr(err, "message", msgs[i].ID)
		}
	}
	conv.UnreadCount = 0
	if err := s.chat.SaveConversation(ctx, conv); err != nil {
		return nil, mapRepoErr(err, "conversation", conv.ID)
	}
	return conv, nil
}

// MarkMessageRead flips one message to read, decrementing the unread
// counter when it was an unread client message.
func (s *ChatService) MarkMessageRead(ctx context.Context, actor *domain.User, messageID string) (*domain.ChatMessage, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.chat.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapRepoErr(err, "message", messageID)
	}
	if msg.TenantID != actor.TenantID || !canSeeClient(actor, msg.ClientID) {
		return nil, apperrors.NewNotFound("message", map[string]any{"id": messageID})
	}
	if msg.Sender == SenderFor(actor) {
		return nil, apperrors.NewForbidden("cannot mark own message read")
	}
	if msg.Read {
		return msg, nil
	}
	msg.Read = true
	if err := s.chat.UpdateMessage(ctx, msg); err != nil {
		return nil, mapRepoErr(err, "message", messageID)
	}
	if msg.Sender != domain.SenderClient {
		return msg, nil
	}
	conv, err := s.chat.GetConversationByClient(ctx, msg.TenantID, msg.ClientID)
	if err != nil {
		return nil, mapRepoErr(err, "conversation", msg.ClientID)
	}
	if conv.UnreadCount > 0 {
		conv.UnreadCount--
	}
	if err := s.chat.SaveConversation(ctx, conv); err != nil {
		return nil, mapRepoErr(err, "conversation", conv.ID)
	}
	return msg, nil
}

// RenameClient refreshes the client name on the conversation and its messages.
func (s *ChatService) RenameClient(ctx context.Context, tenantID, clientID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.chat.GetConversationByClient(ctx, tenantID, clientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	conv.ClientName = name
	if err := s.chat.SaveConversation(ctx, conv); err != nil {
		return err
	}
	msgs, err := s.chat.ListMessages(ctx, tenantID, clientID)
	if err != nil {
		return err
	}
	for i := range msgs {
		msgs[i].ClientName = name
		if err := s.chat.UpdateMessage(ctx, &msgs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChatService) visibleClient(ctx context.Context, actor *domain.User, clientID string) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil || client.TenantID != actor.TenantID || !canSeeClient(actor, clientID) {
		return nil, apperrors.NewNotFound("client", map[string]any{"id": clientID})
	}
	return client, nil
}

func (s *ChatService) loadConversation(ctx context.Context, actor *domain.User, id string) (*domain.ChatConversation, error) {
	conv, err := s.chat.GetConversation(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "conversation", id)
	}
	if conv.TenantID != actor.TenantID || !canSeeClient(actor, conv.ClientID) {
		return nil, apperrors.NewNotFound("conversation", map[string]any{"id": id})
	}
	return conv, nil
}
