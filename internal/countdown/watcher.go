package countdown

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/storebox-portal/internal/model"
)

// Watcher recomputes the countdown for one order on a fixed interval and
// reports each value through a callback. Watching a different order stops the
// previous tick loop first, so a stale loop never reports against the wrong
// order.
type Watcher struct {
	now      func() time.Time
	grace    time.Duration
	interval time.Duration

	mu      sync.Mutex
	orderID uuid.UUID
	stop    chan struct{}
}

// NewWatcher builds a watcher with an injected wall-clock source. Interval is
// how often the remaining time is recomputed; production callers pass one
// second.
func NewWatcher(now func() time.Time, grace, interval time.Duration) *Watcher {
	if now == nil {
		now = time.Now
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{now: now, grace: grace, interval: interval}
}

// Watch starts reporting the countdown for the order. The callback receives
// the remaining duration and state once immediately and then on every tick;
// the loop stops on its own as soon as the state leaves StateRunning. Calling
// Watch again replaces the previous order.
func (w *Watcher) Watch(o model.Order, onTick func(time.Duration, State)) {
	w.mu.Lock()
	w.stopLocked()
	stop := make(chan struct{})
	w.stop = stop
	w.orderID = o.ID
	w.mu.Unlock()

	left, state := Remaining(o, w.now(), w.grace)
	onTick(left, state)
	if state != StateRunning {
		w.stopIf(stop)
		return
	}

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				left, state := Remaining(o, w.now(), w.grace)
				onTick(left, state)
				if state != StateRunning {
					w.stopIf(stop)
					return
				}
			}
		}
	}()
}

// Stop cancels the current tick loop. Safe to call repeatedly.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

// stopIf stops the loop only when it is still the active one, so a loop that
// was already replaced by a newer Watch cannot cancel its successor.
func (w *Watcher) stopIf(ch chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop == ch {
		w.stopLocked()
	}
}

func (w *Watcher) stopLocked() {
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
		w.orderID = uuid.Nil
	}
}
