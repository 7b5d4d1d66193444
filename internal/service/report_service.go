package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/report"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// ReportService builds and renders order reports.
type ReportService struct {
	orders     repository.OrderRepository
	stages     repository.StageRepository
	users      repository.UserRepository
	tenants    repository.TenantRepository
	dispatcher events.Dispatcher
	opts       MetricsOptions
	now        Clock
}

// ReportDependencies bundles the report service collaborators.
type ReportDependencies struct {
	OrderRepo  repository.OrderRepository
	StageRepo  repository.StageRepository
	UserRepo   repository.UserRepository
	TenantRepo repository.TenantRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// ReportRequest selects the report and narrows the orders it covers.
type ReportRequest struct {
	Kind   report.Kind
	Format report.Format
	Filter repository.OrderFilter
}

// Document is a rendered report.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// NewReportService constructs the service.
func NewReportService(opts MetricsOptions, deps ReportDependencies) *ReportService {
	return &ReportService{
		orders:     deps.OrderRepo,
		stages:     deps.StageRepo,
		users:      deps.UserRepo,
		tenants:    deps.TenantRepo,
		dispatcher: deps.Dispatcher,
		opts:       opts,
		now:        clockOrNow(deps.Clock),
	}
}

// Generate renders a report. relatorios.todos covers every tenant order;
// relatorios.setor covers the reader's linked clients, or for staff the
// orders whose responsible user shares the actor's sector.
func (s *ReportService) Generate(ctx context.Context, actor *domain.User, req ReportRequest) (*Document, error) {
	if err := authorize(actor, auth.PermReportsAll, auth.PermReportsSector); err != nil {
		return nil, err
	}
	if !req.Kind.Valid() {
		return nil, apperrors.NewValidationError("invalid report kind", map[string]any{"kind": req.Kind})
	}
	if req.Format == "" {
		req.Format = report.FormatPDF
	}
	if !req.Format.Valid() {
		return nil, apperrors.NewValidationError("invalid report format", map[string]any{"format": req.Format})
	}

	orders, err := s.scopedOrders(ctx, actor, req.Filter)
	if err != nil {
		return nil, err
	}
	stages, err := s.stages.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	tenantName := actor.TenantID
	if tenant, err := s.tenants.GetByID(ctx, actor.TenantID); err == nil {
		tenantName = tenant.Name
	}

	built, err := report.Build(req.Kind, report.Input{
		TenantName:  tenantName,
		GeneratedBy: actor.Name,
		GeneratedAt: now,
		Orders:      orders,
		Stages:      stages,
		Metrics:     ComputeDashboardMetrics(actor.TenantID, orders, stages, now, s.opts),
	})
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	var body []byte
	switch req.Format {
	case report.FormatCSV:
		body, err = report.RenderCSV(built)
	default:
		body, err = report.RenderPDF(built)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventReportGenerated,
		TenantID: actor.TenantID,
		Actor:    events.ActorOf(actor),
		Payload:  events.NamedPayload{Name: string(req.Kind)},
	})
	return &Document{
		Filename:    fmt.Sprintf("relatorio-%s-%s.%s", req.Kind, now.Format("20060102-150405"), req.Format),
		ContentType: req.Format.ContentType(),
		Body:        body,
	}, nil
}

func (s *ReportService) scopedOrders(ctx context.Context, actor *domain.User, filter repository.OrderFilter) ([]domain.Order, error) {
	filter.TenantID = actor.TenantID
	filter.Limit, filter.Offset = 0, 0
	if linked, restricted := clientScope(actor); restricted {
		filter.RestrictClients = true
		filter.ClientIDs = intersectScope(filter.ClientIDs, linked)
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if auth.HasPermission(actor.Role, auth.PermReportsAll) || actor.Role == domain.RoleReader {
		return orders, nil
	}

	users, err := s.users.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sector := make(map[string]bool, len(users))
	for _, u := range users {
		if u.Sector != "" && u.Sector == actor.Sector {
			sector[u.ID] = true
		}
	}
	sector[actor.ID] = true
	visible := orders[:0]
	for _, o := range orders {
		if sector[o.ResponsibleUserID] {
			visible = append(visible, o)
		}
	}
	return visible, nil
}
