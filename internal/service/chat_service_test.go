package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/seed"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

func TestSend_ClientMessagesBumpUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.user(t, seed.UserReader)
	admin := env.user(t, seed.UserAdmin)

	msg, err := env.chatSvc.Send(ctx, reader, "cliente-001", "  Meu pedido já saiu?  ", "")
	require.NoError(t, err)
	assert.Equal(t, domain.SenderClient, msg.Sender)
	assert.Equal(t, "Meu pedido já saiu?", msg.Body)
	assert.Equal(t, "Empresa ABC Ltda", msg.ClientName)
	assert.False(t, msg.Read)

	_, err = env.chatSvc.Send(ctx, admin, "cliente-001", "Sai amanhã.", domain.SenderAdmin)
	require.NoError(t, err)

	convs, err := env.chatSvc.Conversations(ctx, admin)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].UnreadCount)
	assert.Equal(t, "Sai amanhã.", convs[0].LastMessage)
	assert.True(t, convs[0].LastMessageAt.Equal(testNow))
}

func TestSend_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.user(t, seed.UserReader)

	_, err := env.chatSvc.Send(ctx, reader, "cliente-001", "oi", domain.SenderAdmin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = env.chatSvc.Send(ctx, reader, "cliente-001", "   ", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.chatSvc.Send(ctx, reader, "cliente-001", strings.Repeat("a", maxChatBody+1), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.chatSvc.Send(ctx, reader, "cliente-004", "oi", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestMarkConversationRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.user(t, seed.UserReader)
	supervisor := env.user(t, seed.UserSupervisor)

	first, err := env.chatSvc.Send(ctx, reader, "cliente-002", "primeira", "")
	require.NoError(t, err)
	_, err = env.chatSvc.Send(ctx, reader, "cliente-002", "segunda", "")
	require.NoError(t, err)

	convs, err := env.chatSvc.Conversations(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].UnreadCount)

	_, err = env.chatSvc.MarkConversationRead(ctx, reader, convs[0].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	conv, err := env.chatSvc.MarkConversationRead(ctx, supervisor, convs[0].ID)
	require.NoError(t, err)
	assert.Zero(t, conv.UnreadCount)

	msgs, err := env.chatSvc.Messages(ctx, supervisor, "cliente-002")
	require.NoError(t, err)
	for _, m := range msgs {
		assert.True(t, m.Read, m.ID)
	}

	again, err := env.chatSvc.MarkMessageRead(ctx, supervisor, first.ID)
	require.NoError(t, err)
	assert.True(t, again.Read)
}

func TestMarkMessageRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.user(t, seed.UserReader)
	operator := env.user(t, seed.UserOperator)

	msg, err := env.chatSvc.Send(ctx, reader, "cliente-001", "oi", "")
	require.NoError(t, err)
	_, err = env.chatSvc.Send(ctx, reader, "cliente-001", "alguém?", "")
	require.NoError(t, err)

	_, err = env.chatSvc.MarkMessageRead(ctx, reader, msg.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	read, err := env.chatSvc.MarkMessageRead(ctx, operator, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	convs, err := env.chatSvc.Conversations(ctx, operator)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].UnreadCount)

	_, err = env.chatSvc.MarkMessageRead(ctx, operator, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestConversations_ReaderSeesOwnClientsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	_, err := env.chatSvc.Send(ctx, admin, "cliente-001", "Bom dia", "")
	require.NoError(t, err)
	_, err = env.chatSvc.Send(ctx, admin, "cliente-005", "Bom dia", "")
	require.NoError(t, err)

	all, err := env.chatSvc.Conversations(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.chatSvc.Conversations(ctx, env.user(t, seed.UserReader))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "cliente-001", mine[0].ClientID)
	assert.Zero(t, mine[0].UnreadCount)
}
