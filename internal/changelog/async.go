package changelog

import (
	"context"
	"log"
	"time"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait during shutdown so in-flight async
// emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so administrative writes are not blocked on
// the event pipeline. Best-effort: errors are logged. emitter and event may be
// nil; EmitAsync then returns without starting a goroutine.
//
// The goroutine uses context.Background() with emitTimeout so request
// cancellation does not abort an in-flight emit.
func EmitAsync(emitter Emitter, ctx context.Context, event *ChangeEvent) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("changelog: async emit failed: %v", err)
		}
	}()
}
