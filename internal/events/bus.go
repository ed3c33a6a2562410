// Package events decouples the authoritative write path from realtime
// delivery. Services publish fire-and-forget; a dispatcher goroutine drains
// the channel into the broadcaster, so a slow or failed broadcast can never
// delay or fail an append or create.
package events

import (
	"context"

	"go.uber.org/zap"
)

const (
	TypeConversationCreated = "conversation.created"
	TypeMessageCreated      = "message.created"
	TypeMessageEdited       = "message.edited"
	TypePresenceOnline      = "presence.online"
	TypePresenceOffline     = "presence.offline"
	TypeTyping              = "typing"
)

// Event is a notification destined for the active connections of the
// target users. Payload must be JSON-serializable.
type Event struct {
	Type          string `json:"type"`
	TargetUserIDs []int64
	Payload       any
}

// Sink receives dispatched events. Implemented by the ws hub.
type Sink interface {
	Deliver(ev Event)
}

// Bus is a bounded in-process event channel.
type Bus struct {
	ch  chan Event
	log *zap.Logger
}

func NewBus(size int, log *zap.Logger) *Bus {
	if size <= 0 {
		size = 256
	}
	return &Bus{
		ch:  make(chan Event, size),
		log: log,
	}
}

// Publish enqueues the event without blocking. Delivery is best-effort:
// when the buffer is full the event is dropped and logged, never stalling
// the caller's write.
func (b *Bus) Publish(ev Event) {
	select {
	case b.ch <- ev:
	default:
		b.log.Warn("event bus full, dropping event",
			zap.String("type", ev.Type),
			zap.Int("targets", len(ev.TargetUserIDs)))
	}
}

// Run drains the bus into the sink until ctx is cancelled. Call it in its
// own goroutine before any publisher starts.
func (b *Bus) Run(ctx context.Context, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.ch:
			sink.Deliver(ev)
		}
	}
}
