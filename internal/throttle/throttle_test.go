package throttle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_TrailingCoalescesBurst(t *testing.T) {
	var calls int32
	th := New(20*time.Millisecond, Edges{Trailing: true}, func() {
		atomic.AddInt32(&calls, 1)
	})

	for i := 0; i < 5; i++ {
		th.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestThrottle_LeadingFiresImmediately(t *testing.T) {
	var calls int32
	th := New(20*time.Millisecond, Edges{Leading: true}, func() {
		atomic.AddInt32(&calls, 1)
	})

	th.Trigger()
	time.Sleep(5 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestThrottle_LeadingAndTrailingFireTwicePerBurst(t *testing.T) {
	var calls int32
	th := New(20*time.Millisecond, Edges{Leading: true, Trailing: true}, func() {
		atomic.AddInt32(&calls, 1)
	})

	th.Trigger()
	th.Trigger()
	th.Trigger()
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestThrottle_StopCancelsPendingTrailingFire(t *testing.T) {
	var calls int32
	th := New(20*time.Millisecond, Edges{Trailing: true}, func() {
		atomic.AddInt32(&calls, 1)
	})

	th.Trigger()
	th.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestThrottle_SeparateBurstsFireSeparately(t *testing.T) {
	var calls int32
	th := New(10*time.Millisecond, Edges{Trailing: true}, func() {
		atomic.AddInt32(&calls, 1)
	})

	th.Trigger()
	time.Sleep(30 * time.Millisecond)
	th.Trigger()
	time.Sleep(30 * time.Millisecond)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
