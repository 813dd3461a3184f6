package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	hookMu sync.Mutex
	hook   func()

	ticking atomic.Bool

	lifecycleMu sync.Mutex
	initialized bool
)

// SetTickHook replaces the process-wide tick hook. Nil clears it.
func SetTickHook(fn func()) {
	hookMu.Lock()
	hook = fn
	hookMu.Unlock()
}

// Tick pumps the engine message loop once. A call made while another Tick
// is running returns immediately.
func Tick() {
	if !ticking.CompareAndSwap(false, true) {
		return
	}
	defer ticking.Store(false)

	hookMu.Lock()
	fn := hook
	hookMu.Unlock()

	if fn != nil {
		fn()
	}
}

// Init performs process-wide engine setup. Repeated calls are no-ops.
func Init(log *zap.Logger) error {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	if initialized {
		return nil
	}
	initialized = true
	if log != nil {
		log.Named("engine").Info("Engine init")
	}
	return nil
}

// Shutdown tears down process-wide engine state and clears the tick hook.
// Tick stays safe to call afterwards.
func Shutdown(log *zap.Logger) {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	SetTickHook(nil)
	if !initialized {
		return
	}
	initialized = false
	if log != nil {
		log.Named("engine").Info("Engine shutdown")
	}
}
