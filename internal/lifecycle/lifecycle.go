// Package lifecycle tracks process shutdown and the teardown of the details screen.
package lifecycle

import (
	"sync"
	"sync/atomic"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
// Health handler returns 503 with status shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Teardown runs registered hooks once, in reverse registration order, when the screen goes away.
type Teardown struct {
	mu    sync.Mutex
	hooks []func()
	done  bool
}

// OnTeardown registers fn. Hooks registered after Run has fired are run immediately.
func (t *Teardown) OnTeardown(fn func()) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		fn()
		return
	}
	t.hooks = append(t.hooks, fn)
	t.mu.Unlock()
}

// Run fires every hook. Later calls are no-ops.
func (t *Teardown) Run() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	hooks := t.hooks
	t.hooks = nil
	t.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}
