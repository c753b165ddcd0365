package session

import (
	"sync"
	"time"
)

// DefaultCheckInterval is how often the session token is polled.
const DefaultCheckInterval = 5 * time.Second

// TokenCheck reports whether a token is present and whether it is still
// valid. It is polled on every tick.
type TokenCheck func() (present, valid bool)

// Watchdog polls token validity on a fixed interval and fires onExpired
// exactly once when a present token stops being valid. After firing the
// watchdog is terminal; acknowledgment (logout) is the owner's job.
//
// A Watchdog is single-use: arm it at login, stop it at logout, and build a
// new one for the next session.
type Watchdog struct {
	interval  time.Duration
	check     TokenCheck
	onExpired func()

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
	fired   bool
}

func NewWatchdog(interval time.Duration, check TokenCheck, onExpired func()) *Watchdog {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Watchdog{interval: interval, check: check, onExpired: onExpired}
}

// Arm starts the polling loop. If no token is present it does nothing and
// reports false: there is nothing to watch and no timer to leak. Arming an
// already-armed watchdog is a no-op.
func (w *Watchdog) Arm() bool {
	if present, _ := w.check(); !present {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	if w.stop != nil {
		return true
	}
	w.stop = make(chan struct{})
	go w.run(w.stop)
	return true
}

func (w *Watchdog) run(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.poll() {
				return
			}
		}
	}
}

// poll runs one check. It returns true once the watchdog has fired, which
// ends the loop: repeated checks after the first detection must not re-fire.
func (w *Watchdog) poll() bool {
	present, valid := w.check()
	if !present || valid {
		return false
	}

	w.mu.Lock()
	if w.fired {
		w.mu.Unlock()
		return true
	}
	w.fired = true
	w.mu.Unlock()

	if w.onExpired != nil {
		w.onExpired()
	}
	return true
}

// Fired reports whether the expiry signal has been emitted.
func (w *Watchdog) Fired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

// Stop tears the polling loop down. Safe to call repeatedly, before arming,
// and after expiry.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop == nil || w.stopped {
		w.stopped = true
		return
	}
	close(w.stop)
	w.stopped = true
}
