// internal/historian/historian.go drains the game message queue into the round archive.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/beergame/internal/cache"
	"github.com/jason-s-yu/beergame/internal/game"
	log "github.com/sirupsen/logrus"
)

// Queue yields game messages. Pop returns ok=false when nothing arrived within timeout.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.GameMessage, bool, error)
}

// Store persists batches of messages.
type Store interface {
	SaveBatch(ctx context.Context, msgs []cache.GameMessage) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) error
}

// Options tune batching and the inactivity sweep.
type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity marks in-progress games abandoned after this long without a message.
	// Zero disables the sweep.
	Inactivity time.Duration
	// PopTimeout bounds each blocking read so shutdown and flushes are not delayed.
	PopTimeout time.Duration
}

// Service batches messages from a Queue into a Store.
type Service struct {
	queue Queue
	store Store
	opts  Options

	// flushMu serializes flushes so batches reach the store in queue order.
	flushMu sync.Mutex
	batchMu sync.Mutex
	batch   []cache.GameMessage

	// activity tracks the last message time of every game still in progress.
	activityMu sync.Mutex
	activity   map[uuid.UUID]time.Time
}

// NewService returns a service with defaults applied to unset options.
func NewService(queue Queue, store Store, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = time.Second
	}
	return &Service{
		queue:    queue,
		store:    store,
		opts:     opts,
		batch:    make([]cache.GameMessage, 0, opts.BatchSize),
		activity: make(map[uuid.UUID]time.Time),
	}
}

// Run reads until ctx is cancelled, then flushes what is left and returns.
func (hs *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hs.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		hs.inactivityLoop(ctx)
	}()

	log.Info("historian started")
	hs.readLoop(ctx)
	wg.Wait()

	// the run context is gone; give the last flush its own deadline
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hs.flush(flushCtx)
	log.Info("historian stopped")
}

func (hs *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		msg, ok, err := hs.queue.Pop(ctx, hs.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("queue pop failed")
			// avoid spinning on a dead connection
			select {
			case <-ctx.Done():
			case <-time.After(hs.opts.PopTimeout):
			}
			continue
		}
		if !ok {
			continue
		}

		hs.track(msg)
		if hs.appendToBatch(msg) {
			hs.flush(ctx)
		}
	}
}

func (hs *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.flush(ctx)
		}
	}
}

// appendToBatch adds msg to the batch and reports whether the batch is full.
func (hs *Service) appendToBatch(msg cache.GameMessage) bool {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.batch = append(hs.batch, msg)
	return len(hs.batch) >= hs.opts.BatchSize
}

// flush writes the current batch. The batch lock is released before the store is called;
// a failed batch is put back in front of anything appended meanwhile.
func (hs *Service) flush(ctx context.Context) {
	hs.flushMu.Lock()
	defer hs.flushMu.Unlock()

	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	pending := hs.batch
	hs.batch = make([]cache.GameMessage, 0, hs.opts.BatchSize)
	hs.batchMu.Unlock()

	if err := hs.store.SaveBatch(ctx, pending); err != nil {
		log.WithError(err).WithField("count", len(pending)).Error("flush failed, will retry")
		hs.batchMu.Lock()
		hs.batch = append(pending, hs.batch...)
		hs.batchMu.Unlock()
		return
	}
	log.WithField("count", len(pending)).Debug("flushed game messages")
}

func (hs *Service) track(msg cache.GameMessage) {
	hs.activityMu.Lock()
	defer hs.activityMu.Unlock()
	switch msg.Type {
	case game.EventGameCompleted, game.EventGameReset:
		delete(hs.activity, msg.GameID)
	default:
		hs.activity[msg.GameID] = time.Now()
	}
}

func (hs *Service) inactivityLoop(ctx context.Context) {
	if hs.opts.Inactivity <= 0 {
		return
	}
	interval := min(time.Minute, hs.opts.Inactivity)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			hs.sweep(ctx, now)
		}
	}
}

// sweep marks every game idle since before now-Inactivity as abandoned.
func (hs *Service) sweep(ctx context.Context, now time.Time) {
	var stale []uuid.UUID
	hs.activityMu.Lock()
	for id, last := range hs.activity {
		if now.Sub(last) > hs.opts.Inactivity {
			stale = append(stale, id)
			delete(hs.activity, id)
		}
	}
	hs.activityMu.Unlock()

	for _, id := range stale {
		// pending messages for this game must land before the status flips
		hs.flush(ctx)
		if err := hs.store.MarkAbandoned(ctx, id); err != nil {
			log.WithError(err).WithField("game", id).Error("failed to mark game abandoned")
			continue
		}
		log.WithField("game", id).Info("marked game abandoned due to inactivity")
	}
}
