package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/soulteary/eqlock/lock"
)

func TestNewObserver(t *testing.T) {
	obs := NewObserver("")
	reg := NewRegistry()
	if err := obs.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	obs.Observe(context.Background(), lock.Event{Lock: "l", Kind: lock.EventAcquired})
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "eqlock_events_total" {
			found = true
		}
	}
	if !found {
		t.Errorf("default namespace metric eqlock_events_total not gathered")
	}
}

func TestObserverWithLock(t *testing.T) {
	obs := NewObserver("test")
	l := lock.NewWithConfig[string](lock.DefaultConfig().WithName("orders").WithObserver(obs))
	ctx := context.Background()

	_ = l.Lock(ctx, "a")
	_ = l.Lock(ctx, "b")
	_ = l.Release("a")
	_ = l.Release("missing")

	wctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_ = l.Lock(wctx, "b")

	if got := testutil.ToFloat64(obs.events.WithLabelValues("orders", string(lock.EventAcquired))); got != 2 {
		t.Errorf("acquired events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(obs.events.WithLabelValues("orders", string(lock.EventReleaseUnheld))); got != 1 {
		t.Errorf("release_unheld events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.events.WithLabelValues("orders", string(lock.EventCancelled))); got != 1 {
		t.Errorf("cancelled events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.held.WithLabelValues("orders")); got != 1 {
		t.Errorf("held gauge = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(obs.holdTime); got != 1 {
		t.Errorf("hold_seconds series = %d, want 1", got)
	}
}

func TestObserverWaitHistogram(t *testing.T) {
	obs := NewObserver("wait")
	obs.Observe(context.Background(), lock.Event{Lock: "l", Kind: lock.EventAcquired})
	if got := testutil.CollectAndCount(obs.wait); got != 0 {
		t.Errorf("wait_seconds series without waiting = %d, want 0", got)
	}

	obs.Observe(context.Background(), lock.Event{Lock: "l", Kind: lock.EventAcquired, Waited: 5 * time.Millisecond})
	if got := testutil.CollectAndCount(obs.wait); got != 1 {
		t.Errorf("wait_seconds series after waiting = %d, want 1", got)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver("dup")
	obs.MustRegister(reg)

	if err := NewObserver("dup").Register(reg); err == nil {
		t.Error("Register() of duplicate metrics error = nil, want error")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	obs.MustRegister(reg)
}
