package loop

import "time"

// Task is a cancellable delayed callback with at most one run in flight.
// A Task is not safe for concurrent use; call it from the scheduler's goroutine.
type Task struct {
	sched Scheduler
	fn    func()
	timer Timer
	gen   uint64
}

// NewTask binds fn to a scheduler.
func NewTask(sched Scheduler, fn func()) *Task {
	return &Task{sched: sched, fn: fn}
}

// Schedule arranges for fn to run after d. It does nothing and returns false
// while a run is already pending.
func (t *Task) Schedule(d time.Duration) bool {
	if t.timer != nil {
		return false
	}
	t.gen++
	gen := t.gen
	t.timer = t.sched.AfterFunc(d, func() {
		if gen != t.gen || t.timer == nil {
			return
		}
		t.timer = nil
		t.fn()
	})
	return true
}

// Cancel drops a pending run. It reports whether one was pending.
func (t *Task) Cancel() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	return true
}

// Pending reports whether a run is scheduled.
func (t *Task) Pending() bool { return t.timer != nil }

// Throttle runs fn at most once per interval. A call that arrives inside the
// window schedules a single trailing run just after the window closes, so the
// last request is never lost.
type Throttle struct {
	sched    Scheduler
	interval time.Duration
	fn       func()
	last     time.Time
	ran      bool
	trailing *Task
}

// NewThrottle creates a Throttle that has never run.
func NewThrottle(sched Scheduler, interval time.Duration, fn func()) *Throttle {
	th := &Throttle{sched: sched, interval: interval, fn: fn}
	th.trailing = NewTask(sched, th.Trigger)
	return th
}

// Trigger requests a run.
func (th *Throttle) Trigger() {
	now := th.sched.Now()
	if th.ran {
		if elapsed := now.Sub(th.last); elapsed < th.interval {
			th.trailing.Schedule(th.interval - elapsed + time.Millisecond)
			return
		}
	}
	th.trailing.Cancel()
	th.run(now)
}

// Flush runs a pending trailing request immediately. It reports whether
// there was one.
func (th *Throttle) Flush() bool {
	if !th.trailing.Cancel() {
		return false
	}
	th.run(th.sched.Now())
	return true
}

// Cancel drops a pending trailing request.
func (th *Throttle) Cancel() bool { return th.trailing.Cancel() }

// Pending reports whether a trailing run is scheduled.
func (th *Throttle) Pending() bool { return th.trailing.Pending() }

func (th *Throttle) run(now time.Time) {
	th.last = now
	th.ran = true
	th.fn()
}
