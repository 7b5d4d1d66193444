package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// Clock returns the current time.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// StoreLock serializes the writes that check references across orders,
// stages, clients and users. The order, stage, client and user services
// must share one instance or a delete can race the write that re-creates
// the reference.
type StoreLock struct {
	sync.Mutex
}

// NewStoreLock returns a lock to share between the lifecycle services.
func NewStoreLock() *StoreLock {
	return &StoreLock{}
}

func lockOrNew(l *StoreLock) *StoreLock {
	if l == nil {
		return NewStoreLock()
	}
	return l
}

// Recorder receives operational counters.
type Recorder interface {
	RecordMove(tenantID string, terminal, automatic bool)
	RecordNotification(tenantID string, kind domain.NotificationKind)
	ObserveDashboard(snapshot domain.DashboardMetrics)
}

type nopRecorder struct{}

func (nopRecorder) RecordMove(string, bool, bool) {}

func (nopRecorder) RecordNotification(string, domain.NotificationKind) {}

func (nopRecorder) ObserveDashboard(domain.DashboardMetrics) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// authorize is the guard every mutating operation opens with. It never mutates.
func authorize(actor *domain.User, perms ...auth.Permission) error {
	if actor == nil || !actor.Active {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !auth.HasAnyPermission(actor.Role, perms...) {
		return apperrors.NewForbidden("access denied")
	}
	return nil
}

func authenticated(actor *domain.User) error {
	if actor == nil || !actor.Active {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

// mapRepoErr translates repository sentinels into domain errors.
func mapRepoErr(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" already exists", map[string]any{"id": id})
	default:
		return apperrors.NewInternalError(err)
	}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now Clock, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func requiredFields(fields map[string]string) error {
	missing := []string{}
	for name, val := range fields {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// clientScope reports the client ids a reader is confined to. Staff roles are unrestricted.
func clientScope(actor *domain.User) ([]string, bool) {
	if actor.Role == domain.RoleReader {
		return actor.LinkedClientIDs, true
	}
	return nil, false
}

func canSeeClient(actor *domain.User, clientID string) bool {
	if _, restricted := clientScope(actor); restricted {
		return actor.IsLinkedTo(clientID)
	}
	return true
}
