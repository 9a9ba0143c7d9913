package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLoopStopped is returned by Do after Stop.
var ErrLoopStopped = errors.New("event loop stopped")

// loopRequest is a unit of work to run on the loop goroutine.
type loopRequest struct {
	fn   func()
	done chan error // nil for Post
}

// Loop is the host event thread: a single goroutine that runs every
// callback, request and timer in turn. A Session and its Driver are not
// safe for concurrent use, so every caller reaches them through a Loop.
type Loop struct {
	requests chan loopRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a Loop and starts its goroutine.
func NewLoop() *Loop {
	l := &Loop{
		requests: make(chan loopRequest, 64),
		quit:     make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case req := <-l.requests:
			err := l.execute(req.fn)
			if req.done != nil {
				req.done <- err
			} else if err != nil {
				log.Errorf("posted callback: %s", err)
			}
		case <-l.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics.
func (l *Loop) execute(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn()
	return nil
}

// Do runs fn on the loop goroutine and waits for it. A panic in fn is
// returned as an error. Do must not be called from the loop itself.
func (l *Loop) Do(fn func()) error {
	req := loopRequest{fn: fn, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-l.quit:
		return ErrLoopStopped
	}
	select {
	case err := <-req.done:
		return err
	case <-l.quit:
		return ErrLoopStopped
	}
}

// Post queues fn without waiting. It reports false if the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.requests <- loopRequest{fn: fn}:
		return true
	case <-l.quit:
		return false
	}
}

// ScheduleAfter posts fn onto the loop once delay has elapsed.
func (l *Loop) ScheduleAfter(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, func() { l.Post(fn) })
}

// Stop shuts the loop down. Queued work that has not started is dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}
