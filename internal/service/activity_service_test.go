package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/seed"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

func TestActivity_RecentEventsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	_, err := env.orderSvc.Move(ctx, admin, "processo-004", MoveInput{TargetStageID: seed.StageSale})
	require.NoError(t, err)
	_, err = env.clientSvc.Create(ctx, admin, ClientInput{Name: "Nova"})
	require.NoError(t, err)

	recent, err := env.activitySvc.Recent(ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, events.EventClientCreated, recent[0].Type)
	assert.Equal(t, events.EventOrderMoved, recent[1].Type)
	assert.Equal(t, "processo-004", recent[1].ResourceID)

	limited, err := env.activitySvc.Recent(ctx, admin, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = env.activitySvc.Recent(ctx, env.user(t, seed.UserSupervisor), 10)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
