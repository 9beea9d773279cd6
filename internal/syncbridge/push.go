package syncbridge

import (
	"context"

	"ScoreTable/internal/docstore"
	"ScoreTable/internal/game"

	"golang.org/x/time/rate"
)

// startPushing follows the store and writes its summary to the backend, at
// most once per PushInterval. Changes made while waiting collapse into the
// latest one. Callers hold b.mu.
func (b *Bridge) startPushing() {
	ctx, cancel := context.WithCancel(context.Background())
	b.stopPush = cancel
	b.pushDone = make(chan struct{})
	b.wake = make(chan struct{}, 1)

	code, hostID := b.code, b.hostID
	b.cancelLocal = b.store.Subscribe(func(st game.State) {
		b.queue(code, hostID, st)
	})

	go b.push(ctx, b.wake, b.pushDone)
}

func (b *Bridge) queue(code, hostID string, st game.State) {
	if b.applying.Load() {
		return
	}
	sum := st.Summary()

	b.pushMu.Lock()
	if sum.Equal(b.lastSent) {
		b.pushMu.Unlock()
		return
	}
	b.lastSent = sum
	b.pending = &docstore.Document{
		ID:        code,
		HostID:    hostID,
		UpdatedBy: b.clientID,
		Summary:   sum,
	}
	wake := b.wake
	b.pushMu.Unlock()

	select {
	case wake <- struct{}{}:
	default:
	}
}

func (b *Bridge) push(ctx context.Context, wake <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	limiter := rate.NewLimiter(rate.Every(PushInterval), 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		b.pushMu.Lock()
		doc := b.pending
		b.pending = nil
		b.pushMu.Unlock()
		if doc == nil {
			continue
		}

		if err := b.backend.Put(ctx, *doc); err != nil {
			if ctx.Err() != nil {
				return
			}
			b.fail(err)
			continue
		}
		b.setStatus(Connected)
	}
}
