package service

import (
	"context"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
)

const defaultActivityLimit = 100

// ActivityService exposes the recent domain events of a tenant.
type ActivityService struct {
	log *events.ActivityLog
}

// NewActivityService wraps an activity log.
func NewActivityService(log *events.ActivityLog) *ActivityService {
	return &ActivityService{log: log}
}

// Recent returns up to limit events, newest first.
func (s *ActivityService) Recent(_ context.Context, actor *domain.User, limit int) ([]events.Event, error) {
	if err := authorize(actor, auth.PermLogsView); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.log.Recent(actor.TenantID, limit), nil
}
