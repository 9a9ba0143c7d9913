package session

import (
	"sort"
	"time"
)

// Timer cancels a scheduled callback. Stop reports whether the call
// prevented the callback from being delivered; a callback that was already
// on its way may still run.
type Timer interface {
	Stop() bool
}

// Scheduler defers work onto the host's single event thread. The callback
// runs no earlier than delay from now and never on the caller's stack.
type Scheduler interface {
	ScheduleAfter(delay time.Duration, fn func()) Timer
}

// ManualScheduler is a Scheduler driven by hand, for deterministic tests
// and for hosts that pump their own event queue. Time does not pass on its
// own: Advance moves the clock and fires what became due.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*ManualTimer
}

// ManualTimer is one callback registered with a ManualScheduler.
type ManualTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// Stop cancels the timer if it has not fired.
func (t *ManualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the callback even if the timer was stopped, the way a late
// callback from a real timer queue can.
func (t *ManualTimer) Fire() {
	t.fired = true
	t.fn()
}

// Stopped reports whether Stop cancelled the timer.
func (t *ManualTimer) Stopped() bool { return t.stopped }

// Due returns the clock time at which the timer falls due.
func (t *ManualTimer) Due() time.Duration { return t.at }

// ScheduleAfter registers fn to run once the clock reaches now+delay.
func (s *ManualScheduler) ScheduleAfter(delay time.Duration, fn func()) Timer {
	s.seq++
	t := &ManualTimer{at: s.now + delay, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the scheduler's clock.
func (s *ManualScheduler) Now() time.Duration { return s.now }

// Timers returns every timer ever scheduled, in scheduling order.
func (s *ManualScheduler) Timers() []*ManualTimer {
	return append([]*ManualTimer(nil), s.timers...)
}

// Pending returns the number of timers that are neither stopped nor fired.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Next fires the earliest pending timer, advancing the clock to its due
// time. It reports false when nothing is pending.
func (s *ManualScheduler) Next() bool {
	var pending []*ManualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return false
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at != pending[j].at {
			return pending[i].at < pending[j].at
		}
		return pending[i].seq < pending[j].seq
	})
	t := pending[0]
	if t.at > s.now {
		s.now = t.at
	}
	t.Fire()
	return true
}

// Advance moves the clock forward by d, firing every timer that falls due
// on the way, including ones scheduled by the callbacks themselves.
func (s *ManualScheduler) Advance(d time.Duration) int {
	end := s.now + d
	fired := 0
	for {
		var next *ManualTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > end {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			break
		}
		if next.at > s.now {
			s.now = next.at
		}
		next.Fire()
		fired++
	}
	s.now = end
	return fired
}

// Drain fires pending timers until none remain or limit callbacks have
// run. It returns the number fired.
func (s *ManualScheduler) Drain(limit int) int {
	n := 0
	for n < limit && s.Next() {
		n++
	}
	return n
}
