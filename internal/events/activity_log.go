package events

import (
	"context"
	"sync"
)

// ActivityLog keeps the most recent events per tenant in a bounded ring.
type ActivityLog struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]Event
}

// NewActivityLog builds a log keeping capacity events per tenant.
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = 500
	}
	return &ActivityLog{capacity: capacity, entries: make(map[string][]Event)}
}

// Record appends event. Register it with SubscribeAll.
func (l *ActivityLog) Record(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.entries[event.TenantID], event)
	if over := len(list) - l.capacity; over > 0 {
		list = append([]Event(nil), list[over:]...)
	}
	l.entries[event.TenantID] = list
	return nil
}

// Recent returns up to limit events, newest first.
func (l *ActivityLog) Recent(tenantID string, limit int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	list := l.entries[tenantID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Event, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}
