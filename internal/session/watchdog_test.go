package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenState is a TokenCheck whose answers tests can flip mid-run.
type tokenState struct {
	mu      sync.Mutex
	present bool
	valid   bool
}

func (s *tokenState) check() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present, s.valid
}

func (s *tokenState) set(present, valid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.present = present
	s.valid = valid
}

func TestWatchdog_FiresExactlyOnce(t *testing.T) {
	state := &tokenState{present: true, valid: true}
	var fires int32

	w := NewWatchdog(5*time.Millisecond, state.check, func() {
		atomic.AddInt32(&fires, 1)
	})
	defer w.Stop()

	require.True(t, w.Arm())

	// token becomes invalid between two polls
	state.set(true, false)

	// wait long enough for many further ticks to have happened
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fires) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fires))
	assert.True(t, w.Fired())
}

func TestWatchdog_NoTokenDoesNotArm(t *testing.T) {
	state := &tokenState{present: false}
	w := NewWatchdog(5*time.Millisecond, state.check, func() {
		t.Error("watchdog fired without a token")
	})
	defer w.Stop()

	assert.False(t, w.Arm())

	time.Sleep(30 * time.Millisecond)
	assert.False(t, w.Fired())
}

func TestWatchdog_ValidTokenNeverFires(t *testing.T) {
	state := &tokenState{present: true, valid: true}
	w := NewWatchdog(5*time.Millisecond, state.check, func() {
		t.Error("watchdog fired for a valid token")
	})
	defer w.Stop()

	require.True(t, w.Arm())
	time.Sleep(50 * time.Millisecond)
	assert.False(t, w.Fired())
}

func TestWatchdog_StopPreventsSignal(t *testing.T) {
	state := &tokenState{present: true, valid: true}
	var fires int32

	w := NewWatchdog(10*time.Millisecond, state.check, func() {
		atomic.AddInt32(&fires, 1)
	})
	require.True(t, w.Arm())

	w.Stop()
	state.set(true, false)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fires))
}

func TestWatchdog_StopIsIdempotent(t *testing.T) {
	state := &tokenState{present: true, valid: true}
	w := NewWatchdog(10*time.Millisecond, state.check, func() {})

	require.True(t, w.Arm())
	w.Stop()
	w.Stop()
	w.Stop()
}

func TestWatchdog_StopBeforeArm(t *testing.T) {
	state := &tokenState{present: true, valid: true}
	w := NewWatchdog(10*time.Millisecond, state.check, func() {})

	w.Stop()
	assert.False(t, w.Arm())
}

func TestWatchdog_ArmTwiceStartsOneLoop(t *testing.T) {
	state := &tokenState{present: true, valid: false}
	var fires int32

	w := NewWatchdog(5*time.Millisecond, state.check, func() {
		atomic.AddInt32(&fires, 1)
	})
	defer w.Stop()

	require.True(t, w.Arm())
	require.True(t, w.Arm())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fires) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fires))
}
