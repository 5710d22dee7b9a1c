package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(10*time.Millisecond, func() {
		got = append(got, "b")
		m.AfterFunc(5*time.Millisecond, func() { got = append(got, "nested") })
	})
	stopped := m.AfterFunc(20*time.Millisecond, func() { got = append(got, "never") })
	assert.True(t, stopped.Stop())

	m.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "nested"}, got)
	assert.Equal(t, epoch.Add(25*time.Millisecond), m.Now())
	assert.Equal(t, 1, m.Pending())

	m.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "nested", "c"}, got)
	assert.Zero(t, m.Pending())
}

func TestTask_SingleInFlight(t *testing.T) {
	m := NewManual(epoch)
	calls := 0
	task := NewTask(m, func() { calls++ })

	assert.True(t, task.Schedule(25*time.Millisecond))
	assert.False(t, task.Schedule(5*time.Millisecond), "a pending run blocks rescheduling")
	assert.True(t, task.Pending())

	m.Advance(24 * time.Millisecond)
	assert.Zero(t, calls)
	m.Advance(time.Millisecond)
	assert.Equal(t, 1, calls)
	assert.False(t, task.Pending())

	assert.True(t, task.Schedule(0))
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())
	m.Advance(time.Second)
	assert.Equal(t, 1, calls)
	assert.Zero(t, m.Pending())
}

func TestTask_Reschedule(t *testing.T) {
	m := NewManual(epoch)
	calls := 0
	var task *Task
	task = NewTask(m, func() {
		calls++
		if calls < 3 {
			task.Schedule(25 * time.Millisecond)
		}
	})
	task.Schedule(25 * time.Millisecond)
	m.Advance(200 * time.Millisecond)
	assert.Equal(t, 3, calls)
}

func TestThrottle(t *testing.T) {
	const interval = 100 * time.Millisecond

	t.Run("leading call runs immediately", func(t *testing.T) {
		m := NewManual(epoch)
		runs := 0
		th := NewThrottle(m, interval, func() { runs++ })

		th.Trigger()
		assert.Equal(t, 1, runs)
		assert.False(t, th.Pending())
	})

	t.Run("burst collapses into one trailing run", func(t *testing.T) {
		m := NewManual(epoch)
		var at []time.Duration
		th := NewThrottle(m, interval, func() { at = append(at, m.Now().Sub(epoch)) })

		th.Trigger()
		m.Advance(10 * time.Millisecond)
		th.Trigger()
		m.Advance(10 * time.Millisecond)
		th.Trigger()
		assert.Len(t, at, 1)
		assert.True(t, th.Pending())

		m.Advance(time.Second)
		assert.Equal(t, []time.Duration{0, 101 * time.Millisecond}, at)
		assert.Zero(t, m.Pending())
	})

	t.Run("call after the window runs immediately", func(t *testing.T) {
		m := NewManual(epoch)
		runs := 0
		th := NewThrottle(m, interval, func() { runs++ })
		th.Trigger()
		m.Advance(150 * time.Millisecond)
		th.Trigger()
		assert.Equal(t, 2, runs)
	})

	t.Run("flush and cancel", func(t *testing.T) {
		m := NewManual(epoch)
		runs := 0
		th := NewThrottle(m, interval, func() { runs++ })
		th.Trigger()
		th.Trigger()

		assert.True(t, th.Flush())
		assert.Equal(t, 2, runs)
		assert.False(t, th.Flush(), "nothing left to flush")

		th.Trigger()
		assert.True(t, th.Cancel())
		m.Advance(time.Second)
		assert.Equal(t, 2, runs)
		assert.Zero(t, m.Pending())
	})
}
