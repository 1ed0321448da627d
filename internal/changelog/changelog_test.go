package changelog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*ChangeEvent
	err    error
}

func (c *captureEmitter) Emit(ctx context.Context, event *ChangeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *captureEmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestFanout_AllEmittersAttempted(t *testing.T) {
	a := &captureEmitter{err: errors.New("broker down")}
	b := &captureEmitter{}
	fan := Fanout(a, nil, b)

	event := &ChangeEvent{Kind: "feature_flag", Action: ActionCreate, Key: "X"}
	err := fan.Emit(context.Background(), event)
	if err == nil {
		t.Fatal("a failing emitter should surface an error")
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("emit counts = (%d, %d), want both attempted", a.count(), b.count())
	}
}

func TestFanout_NoEmitters(t *testing.T) {
	fan := Fanout(nil, nil)
	if err := fan.Emit(context.Background(), &ChangeEvent{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
}

func TestEmitAsync_NilSafe(t *testing.T) {
	// Must not panic or spawn anything.
	EmitAsync(nil, context.Background(), &ChangeEvent{})
	EmitAsync(&captureEmitter{}, context.Background(), nil)
}

func TestEmitAsync_DeliversEventually(t *testing.T) {
	capture := &captureEmitter{}
	EmitAsync(capture, context.Background(), &ChangeEvent{
		Kind: "runtime_policy", Action: ActionUpdate, Key: "BOOKING_MODE",
	})

	deadline := time.Now().Add(2 * time.Second)
	for capture.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event was never delivered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEmitAsync_SurvivesCancelledRequestContext(t *testing.T) {
	capture := &captureEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The request context is already cancelled; the emit still goes through
	// because the goroutine runs on its own timeout.
	EmitAsync(capture, ctx, &ChangeEvent{Kind: "feature_flag", Action: ActionDelete, Key: "X"})

	deadline := time.Now().Add(2 * time.Second)
	for capture.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event was never delivered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
