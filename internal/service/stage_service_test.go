package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/seed"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

func TestCreateStage_AppendsAfterLast(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, seed.UserAdmin)

	stage, err := env.stageSvc.Create(context.Background(), admin, StageInput{
		Name:        "Pós-venda",
		Color:       "#123456",
		Config:      domain.StageConfig{NotifyAfterDays: 4},
		AllowedNext: []string{seed.StageLead},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, stage.Order)
	assert.True(t, stage.Active)

	stages, err := env.stageSvc.List(context.Background(), env.user(t, seed.UserReader))
	require.NoError(t, err)
	require.Len(t, stages, 7)
	assert.Equal(t, stage.ID, stages[6].ID)
}

func TestCreateStage_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	_, err := env.stageSvc.Create(ctx, admin, StageInput{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.stageSvc.Create(ctx, admin, StageInput{Name: "X", AllowedNext: []string{"etapa-x"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.stageSvc.Create(ctx, env.user(t, seed.UserSupervisor), StageInput{Name: "X"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestUpdateStage_RejectsSelfTransition(t *testing.T) {
	env := newTestEnv(t)
	self := []string{seed.StageLead}
	_, err := env.stageSvc.Update(context.Background(), env.user(t, seed.UserAdmin), seed.StageLead, StagePatch{AllowedNext: &self})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestDeleteStage_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	err := env.stageSvc.Delete(ctx, admin, seed.StageProduce)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	next := []string{seed.StageDispatch}
	_, err = env.stageSvc.Update(ctx, admin, seed.StageLead, StagePatch{AllowedNext: &next})
	require.NoError(t, err)
	err = env.stageSvc.Delete(ctx, admin, seed.StageDispatch)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	empty := []string{}
	_, err = env.stageSvc.Update(ctx, admin, seed.StageLead, StagePatch{AllowedNext: &empty})
	require.NoError(t, err)
	require.NoError(t, env.stageSvc.Delete(ctx, admin, seed.StageDispatch))

	err = env.stageSvc.Delete(ctx, admin, seed.StageDispatch)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestReorderStages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)
	ids := []string{seed.StageDelivery, seed.StageDispatch, seed.StageProduce, seed.StagePayment, seed.StageSale, seed.StageLead}

	out, err := env.stageSvc.Reorder(ctx, admin, ids)
	require.NoError(t, err)
	require.Len(t, out, 6)

	stages, err := env.stageSvc.List(ctx, admin)
	require.NoError(t, err)
	for i, st := range stages {
		assert.Equal(t, ids[i], st.ID)
		assert.Equal(t, i+1, st.Order)
	}

	_, err = env.stageSvc.Reorder(ctx, admin, ids[:5])
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = env.stageSvc.Reorder(ctx, admin, append(ids[:5:5], seed.StageDelivery))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateStage_TerminalFlipRejectedWhileHoldingOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)
	terminal := true

	_, err := env.stageSvc.Update(ctx, admin, seed.StageProduce, StagePatch{IsTerminal: &terminal})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	stage, err := env.stages.GetByID(ctx, seed.StageProduce)
	require.NoError(t, err)
	assert.False(t, stage.IsTerminal)
	assert.Nil(t, env.order(t, "processo-001").DeliveredAt)

	empty, err := env.stageSvc.Create(ctx, admin, StageInput{Name: "Arquivo", Color: "#999999"})
	require.NoError(t, err)
	updated, err := env.stageSvc.Update(ctx, admin, empty.ID, StagePatch{IsTerminal: &terminal})
	require.NoError(t, err)
	assert.True(t, updated.IsTerminal)
}

func TestUpdateStage_KeepsDeliveredOrdersDelivered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	moved, err := env.orderSvc.Move(ctx, admin, "processo-001", MoveInput{TargetStageID: seed.StageDelivery})
	require.NoError(t, err)
	require.NotNil(t, moved.DeliveredAt)
	delivered := *moved.DeliveredAt

	notes := "Entregue ao cliente"
	expected := testNow.AddDate(0, 0, 3)
	_, err = env.orderSvc.Update(ctx, admin, "processo-001", OrderPatch{Notes: &notes, ExpectedDelivery: &expected})
	require.NoError(t, err)
	require.NotNil(t, env.order(t, "processo-001").DeliveredAt)
	assert.True(t, env.order(t, "processo-001").DeliveredAt.Equal(delivered))

	name := "Entregue"
	notTerminal := false
	_, err = env.stageSvc.Update(ctx, admin, seed.StageDelivery, StagePatch{Name: &name, IsTerminal: &notTerminal})
	require.NoError(t, err)
	order := env.order(t, "processo-001")
	require.NotNil(t, order.DeliveredAt)
	assert.True(t, order.DeliveredAt.Equal(delivered))
	assert.Equal(t, seed.StageDelivery, order.CurrentStageID)
}
