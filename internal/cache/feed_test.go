// internal/cache/feed_test.go
package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/jason-s-yu/beergame/internal/game"
	"github.com/stretchr/testify/assert"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []GameMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg GameMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestFeedForwardsArchivedEventsInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	feed := NewFeed(pub, 16)

	for round, typ := range []game.GameEventType{
		game.EventPlayerJoined,
		game.EventGameStarted,
		game.EventOrderSubmitted,
		game.EventRoundResolved,
		game.EventSettingsUpdated,
		game.EventGameCompleted,
		game.EventGameReset,
	} {
		feed.Listen(game.GameEvent{Type: typ, Round: round})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	feed.Run(ctx)

	var got []game.GameEventType
	for _, m := range pub.msgs {
		got = append(got, m.Type)
	}
	assert.Equal(t, []game.GameEventType{
		game.EventGameStarted, game.EventRoundResolved, game.EventGameCompleted, game.EventGameReset,
	}, got)
}

func TestFeedDropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	feed := NewFeed(pub, 1)
	feed.Listen(game.GameEvent{Type: game.EventRoundResolved, Round: 1})
	feed.Listen(game.GameEvent{Type: game.EventRoundResolved, Round: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	feed.Run(ctx)

	if assert.Len(t, pub.msgs, 1) {
		assert.Equal(t, 1, pub.msgs[0].Round)
	}
}
