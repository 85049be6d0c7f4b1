// Package eventloop runs every portal state mutation on a single goroutine.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// Loop is a FIFO task queue drained by one goroutine. Blocking work runs in
// worker goroutines via Go and hands its result back as a new task.
type Loop struct {
	clock Clock

	mu      sync.Mutex
	idle    *sync.Cond
	queue   []func()
	pending int // queued tasks plus running workers
	closed  bool
	wake    chan struct{}
}

func New(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	l := &Loop{clock: clock, wake: make(chan struct{}, 1)}
	l.idle = sync.NewCond(&l.mu)
	return l
}

func (l *Loop) Now() time.Time { return l.clock.Now() }

// Run drains the queue until ctx is done. Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			select {
			case <-ctx.Done():
				l.close()
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
		l.done()
	}
}

// Post queues fn. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.pending++
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits for it to run. Never call it from the loop goroutine.
func (l *Loop) Call(fn func()) {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return
	}
	<-ran
}

// AfterFunc posts fn onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.clock.AfterFunc(d, func() { l.Post(fn) })
}

// Settle blocks until no task is queued and no worker is running.
func (l *Loop) Settle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.pending > 0 && !l.closed {
		l.idle.Wait()
	}
}

// Go runs work in a new goroutine and posts then(result) back onto the loop.
// The completion is dropped if the loop stopped in the meantime.
func Go[T any](l *Loop, work func() (T, error), then func(T, error)) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending++
	l.mu.Unlock()

	go func() {
		defer l.done()
		v, err := work()
		l.Post(func() { then(v, err) })
	}()
}

func (l *Loop) done() {
	l.mu.Lock()
	l.pending--
	if l.pending <= 0 {
		l.pending = 0
		l.idle.Broadcast()
	}
	l.mu.Unlock()
}

func (l *Loop) close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.pending = 0
	l.idle.Broadcast()
	l.mu.Unlock()
}
