package events

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string
	d.Subscribe(EventOrderMoved, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventOrderMoved, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.SubscribeAll(func(context.Context, Event) error {
		calls = append(calls, "all")
		return nil
	})
	d.Subscribe(EventOrderCreated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventOrderMoved}))
	assert.Equal(t, []string{"first", "second", "all"}, calls)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	reached := false
	d.Subscribe(EventClientCreated, func(context.Context, Event) error {
		panic("nil map")
	})
	d.SubscribeAll(func(context.Context, Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		assert.NoError(t, d.Publish(context.Background(), Event{Type: EventClientCreated}))
	})
	assert.True(t, reached)
}

func TestActivityLog_BoundedNewestFirst(t *testing.T) {
	log := NewActivityLog(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = log.Record(ctx, Event{ID: fmt.Sprint(i), TenantID: "t"})
	}
	_ = log.Record(ctx, Event{ID: "x", TenantID: "other"})

	recent := log.Recent("t", 0)
	ids := make([]string, 0, len(recent))
	for _, e := range recent {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"4", "3", "2"}, ids)
	assert.Len(t, log.Recent("t", 2), 2)
	assert.Len(t, log.Recent("other", 10), 1)
	assert.Empty(t, log.Recent("none", 10))
}

func TestRedisPublisher_NilClientIsNoop(t *testing.T) {
	p := NewRedisPublisher(nil, "processflow.events", nil)
	assert.NoError(t, p.Handle(context.Background(), Event{Type: EventOrderMoved, TenantID: "t"}))
	assert.Equal(t, "processflow.events.t", p.Channel("t"))
	assert.Equal(t, "processflow.events", p.Channel(""))
}
