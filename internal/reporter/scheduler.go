package reporter

import (
	"context"
	"sync"
	"time"
)

// Scheduler drives periodic report cycles. Implementations must invoke
// fn from a single goroutine: cycles may not overlap, because the
// connection's autocommit state is restored per cycle.
type Scheduler interface {
	// Schedule invokes fn every interval until the context is cancelled
	// or the scheduler is stopped.
	Schedule(ctx context.Context, interval time.Duration, fn func())

	// Stop terminates scheduling and waits for an in-flight cycle to
	// finish. A cycle is never interrupted mid-transaction.
	Stop()
}

// tickerScheduler is the default Scheduler: one goroutine on a
// time.Ticker, so overlap is impossible by construction.
type tickerScheduler struct {
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newTickerScheduler() *tickerScheduler {
	return &tickerScheduler{
		done: make(chan struct{}),
	}
}

func (s *tickerScheduler) Schedule(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (s *tickerScheduler) Stop() {
	s.once.Do(func() {
		close(s.done)
	})

	s.wg.Wait()
}
