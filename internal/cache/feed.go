// internal/cache/feed.go
package cache

import (
	"context"
	"time"

	"github.com/jason-s-yu/beergame/internal/game"
	log "github.com/sirupsen/logrus"
)

// publisher is satisfied by *Publisher.
type publisher interface {
	Publish(ctx context.Context, msg GameMessage) error
}

// Feed forwards archived session events to a publisher from a single goroutine, keeping
// queue order equal to event order. Listen never blocks; when the buffer is full the event
// is dropped and logged.
type Feed struct {
	pub     publisher
	ch      chan GameMessage
	timeout time.Duration
}

// NewFeed buffers up to size messages for pub.
func NewFeed(pub publisher, size int) *Feed {
	if size <= 0 {
		size = 256
	}
	return &Feed{pub: pub, ch: make(chan GameMessage, size), timeout: 2 * time.Second}
}

// Listen is a session event listener.
func (f *Feed) Listen(ev game.GameEvent) {
	if !Archived(ev.Type) {
		return
	}
	select {
	case f.ch <- MessageFromEvent(ev):
	default:
		log.WithFields(log.Fields{"room": ev.RoomCode, "type": ev.Type}).Warn("round feed full, dropping message")
	}
}

// Run publishes until ctx is cancelled, then drains what is already buffered.
func (f *Feed) Run(ctx context.Context) {
	for {
		select {
		case msg := <-f.ch:
			f.publish(msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-f.ch:
					f.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (f *Feed) publish(msg GameMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.pub.Publish(ctx, msg); err != nil {
		log.WithError(err).WithFields(log.Fields{"room": msg.RoomCode, "type": msg.Type}).Error("publish failed")
	}
}
