// Package sink delivers finished event and session records to an external
// analytics backend. The engines treat delivery as best-effort: a sink error
// must never roll back simulation state.
package sink

import (
	"context"

	"github.com/parkpulse/parking-iot/internal/models"
)

// Sink accepts event and session records for durable delivery. The sink
// assigns its own monotonically increasing offset per record it accepts and
// auto-flushes; Flush is a hint, not a durability requirement.
type Sink interface {
	PublishEvents(ctx context.Context, events []models.Event) error
	PublishSessions(ctx context.Context, sessions []models.Session) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Nop discards all records. Used when no sink is configured: the simulator
// still runs and keeps correct in-memory state with no backend attached.
type Nop struct{}

func (Nop) PublishEvents(context.Context, []models.Event) error     { return nil }
func (Nop) PublishSessions(context.Context, []models.Session) error { return nil }
func (Nop) Flush(context.Context) error                             { return nil }
func (Nop) Close(context.Context) error                             { return nil }
