package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/domain"
)

func TestUserRepository_EmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: "ana@example.com", TenantID: "t"}))

	err := repo.Create(ctx, &domain.User{ID: "u2", Email: "ANA@example.com", TenantID: "t"})
	assert.ErrorIs(t, err, ErrConflict)

	found, err := repo.GetByEmail(ctx, " Ana@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: "a@x", LinkedClientIDs: []string{"c1"}}))

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	got.LinkedClientIDs[0] = "mutated"
	got.Name = "mutated"

	again, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, again.LinkedClientIDs)
	assert.Empty(t, again.Name)
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	assert.ErrorIs(t, NewMemoryUserRepository().Delete(context.Background(), "nope"), ErrNotFound)
}

func TestStageRepository_SortedByOrderKey(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStageRepository()
	require.NoError(t, repo.Create(ctx, &domain.Stage{ID: "b", TenantID: "t", Order: 2}))
	require.NoError(t, repo.Create(ctx, &domain.Stage{ID: "a", TenantID: "t", Order: 1}))
	require.NoError(t, repo.Create(ctx, &domain.Stage{ID: "x", TenantID: "other", Order: 0}))

	stages, err := repo.ListByTenant(ctx, "t")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "a", stages[0].ID)
	assert.Equal(t, "b", stages[1].ID)
}

func TestOrderRepository_Filter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{ID: "o1", TenantID: "t", Number: "PED-1", ClientID: "c1", ClientName: "Empresa ABC", Seller: "Carlos", CurrentStageID: "s1", Priority: domain.PriorityHigh, SaleDate: base, Tags: []string{"vip"}},
		{ID: "o2", TenantID: "t", Number: "PED-2", ClientID: "c2", ClientName: "Comercial XYZ", Seller: "Ana", CurrentStageID: "s2", Priority: domain.PriorityNormal, SaleDate: base.AddDate(0, 0, 5)},
		{ID: "o3", TenantID: "other", Number: "PED-1", ClientID: "c1", ClientName: "Empresa ABC", CurrentStageID: "s1", SaleDate: base},
	}
	for i := range orders {
		require.NoError(t, repo.Create(ctx, &orders[i]))
	}

	all, err := repo.List(ctx, OrderFilter{TenantID: "t"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "o2", all[0].ID, "newest sale first")

	bySearch, _ := repo.List(ctx, OrderFilter{TenantID: "t", SearchTerm: "abc"})
	require.Len(t, bySearch, 1)
	assert.Equal(t, "o1", bySearch[0].ID)

	byStage, _ := repo.List(ctx, OrderFilter{TenantID: "t", StageIDs: []string{"s2"}})
	require.Len(t, byStage, 1)
	assert.Equal(t, "o2", byStage[0].ID)

	byTag, _ := repo.List(ctx, OrderFilter{TenantID: "t", Tags: []string{"vip"}})
	assert.Len(t, byTag, 1)

	from := base.AddDate(0, 0, 1)
	byDate, _ := repo.List(ctx, OrderFilter{TenantID: "t", SaleFrom: &from})
	assert.Len(t, byDate, 1)

	restricted, _ := repo.List(ctx, OrderFilter{TenantID: "t", RestrictClients: true})
	assert.Empty(t, restricted)

	count, err := repo.Count(ctx, OrderFilter{TenantID: "t", ClientIDs: []string{"c2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	paged, _ := repo.List(ctx, OrderFilter{TenantID: "t", Offset: 1, Limit: 1})
	require.Len(t, paged, 1)
	assert.Equal(t, "o1", paged[0].ID)
}

func TestOrderRepository_NumberUniquePerTenant(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()
	require.NoError(t, repo.Create(ctx, &domain.Order{ID: "o1", TenantID: "t", Number: "PED-1"}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.Order{ID: "o2", TenantID: "t", Number: "PED-1"}), ErrConflict)
	assert.NoError(t, repo.Create(ctx, &domain.Order{ID: "o3", TenantID: "u", Number: "PED-1"}))
}

func TestNotificationRepository_DeleteByOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotificationRepository()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, &domain.Notification{ID: "n1", OrderID: "o1", UserID: "u1", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{ID: "n2", OrderID: "o1", UserID: "u2", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{ID: "n3", OrderID: "o2", UserID: "u1", CreatedAt: now.Add(time.Minute)}))

	removed, err := repo.DeleteByOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, _ := repo.ListByUser(ctx, "u1")
	require.Len(t, left, 1)
	assert.Equal(t, "n3", left[0].ID)
}

func TestChatRepository_OneConversationPerClient(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository()
	require.NoError(t, repo.SaveConversation(ctx, &domain.ChatConversation{ID: "conv-1", TenantID: "t", ClientID: "c1"}))
	require.NoError(t, repo.SaveConversation(ctx, &domain.ChatConversation{ID: "conv-1", TenantID: "t", ClientID: "c1", UnreadCount: 3}))

	err := repo.SaveConversation(ctx, &domain.ChatConversation{ID: "conv-2", TenantID: "t", ClientID: "c1"})
	assert.ErrorIs(t, err, ErrConflict)

	conv, err := repo.GetConversationByClient(ctx, "t", "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, conv.UnreadCount)
}
