package mainloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTickInterval is how often OnTick runs while the loop is alive
const DefaultTickInterval = 16 * time.Millisecond

// ErrStopped is returned when work is submitted to a stopped loop
var ErrStopped = errors.New("main loop not running")

// Options configures a Loop
type Options struct {
	TickInterval time.Duration
	// OnTick runs on the loop goroutine every TickInterval
	OnTick func()
}

// Loop is a single-threaded UI context. Closures posted from any goroutine
// run one at a time, in order, on the goroutine that called Run.
type Loop struct {
	tick   time.Duration
	onTick func()
	log    *zap.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a loop. It does nothing until Run is called.
func New(opts Options, log *zap.Logger) *Loop {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		tick:   opts.TickInterval,
		onTick: opts.OnTick,
		log:    log.Named("ui"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post schedules fn on the loop. Returns false if the loop has stopped.
// Safe to call from the loop goroutine itself.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// PostSync schedules fn and waits for its result. Must not be called from
// the loop goroutine.
func (l *Loop) PostSync(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	if !l.Post(func() { errCh <- fn() }) {
		return ErrStopped
	}

	select {
	case err := <-errCh:
		return err
	case <-l.done:
		// fn may have run just before the stop
		select {
		case err := <-errCh:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes posted closures and ticks until ctx is cancelled or Quit
// is called. Closures still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	defer l.Quit()

	for {
		l.drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		case <-ticker.C:
			if l.onTick != nil {
				l.safely("tick", l.onTick)
			}
		}
	}
}

// Quit stops the loop. Posts made afterwards are rejected.
func (l *Loop) Quit() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	})
}

// Done is closed once the loop has stopped
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 || l.stopped {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.safely("task", fn)
	}
}

func (l *Loop) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("UI callback panicked",
				zap.String("kind", what),
				zap.Error(fmt.Errorf("%v", r)))
		}
	}()
	fn()
}
