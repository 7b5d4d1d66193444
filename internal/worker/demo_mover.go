package worker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/service"
)

const demoMoveComment = "Movido automaticamente para demonstração de atualização em tempo real"

// ErrNothingToMove is returned when no order has a legal destination stage.
var ErrNothingToMove = errors.New("demo mover: nothing to move")

// DemoMover simulates activity by moving a random order to a random other
// stage through the lifecycle engine, as a configured actor.
type DemoMover struct {
	orders     *service.OrderService
	orderRepo  repository.OrderRepository
	stageRepo  repository.StageRepository
	users      repository.UserRepository
	actorEmail string
	interval   time.Duration
	logger     *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// DemoMoverDependencies bundles the mover collaborators.
type DemoMoverDependencies struct {
	Orders     *service.OrderService
	OrderRepo  repository.OrderRepository
	StageRepo  repository.StageRepository
	UserRepo   repository.UserRepository
	ActorEmail string
	Interval   time.Duration
	Logger     *zap.Logger
	Rand       *rand.Rand
}

// NewDemoMover builds the mover.
func NewDemoMover(deps DemoMoverDependencies) *DemoMover {
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoMover{
		orders:     deps.Orders,
		orderRepo:  deps.OrderRepo,
		stageRepo:  deps.StageRepo,
		users:      deps.UserRepo,
		actorEmail: deps.ActorEmail,
		interval:   deps.Interval,
		logger:     logger,
		rng:        rng,
	}
}

// Run moves one order per tick until ctx is done.
func (m *DemoMover) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.MoveOnce(ctx); err != nil && !errors.Is(err, ErrNothingToMove) {
				m.logger.Warn("demo mover: move failed", zap.Error(err))
			}
		}
	}
}

// MoveOnce performs a single random move and returns the moved order.
func (m *DemoMover) MoveOnce(ctx context.Context) (*domain.Order, error) {
	actor, err := m.users.GetByEmail(ctx, m.actorEmail)
	if err != nil {
		return nil, err
	}
	orders, err := m.orderRepo.List(ctx, repository.OrderFilter{TenantID: actor.TenantID})
	if err != nil {
		return nil, err
	}
	stages, err := m.stageRepo.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNothingToMove
	}

	m.mu.Lock()
	start := m.rng.Intn(len(orders))
	m.mu.Unlock()
	for i := range orders {
		order := orders[(start+i)%len(orders)]
		targets := destinations(order.CurrentStageID, stages)
		if len(targets) == 0 {
			continue
		}
		m.mu.Lock()
		target := targets[m.rng.Intn(len(targets))]
		m.mu.Unlock()
		return m.orders.Move(ctx, actor, order.ID, service.MoveInput{
			TargetStageID: target.ID,
			Comment:       demoMoveComment,
			Automatic:     true,
		})
	}
	return nil, ErrNothingToMove
}

// destinations lists the active stages an order in current may move to.
func destinations(current string, stages []domain.Stage) []domain.Stage {
	var from *domain.Stage
	for i := range stages {
		if stages[i].ID == current {
			from = &stages[i]
			break
		}
	}
	out := make([]domain.Stage, 0, len(stages))
	for _, st := range stages {
		if st.ID == current || !st.Active {
			continue
		}
		if from != nil && !from.AllowsTransitionTo(st.ID) {
			continue
		}
		out = append(out, st)
	}
	return out
}
