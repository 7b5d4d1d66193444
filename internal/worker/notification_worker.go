package worker

import (
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/service"
)

// Sinks are the event consumers wired at startup. Nil members are skipped.
type Sinks struct {
	Notifications *service.NotificationService
	Metrics       *service.MetricsService
	ActivityLog   *events.ActivityLog
	Publisher     *events.RedisPublisher
}

// StartNotificationWorker registers every sink on the dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, sinks Sinks) {
	if dispatcher == nil {
		return
	}
	if sinks.Notifications != nil {
		sinks.Notifications.RegisterHandlers()
	}
	if sinks.Metrics != nil {
		sinks.Metrics.RegisterHandlers()
	}
	if sinks.ActivityLog != nil {
		dispatcher.SubscribeAll(sinks.ActivityLog.Record)
	}
	if sinks.Publisher != nil {
		dispatcher.SubscribeAll(sinks.Publisher.Handle)
	}
}
