package controller

import (
	"sync"

	m "github.com/courselab/langs/internal/model"
)

// ProgressReporter forwards status updates to a callback registered at
// startup. Subscribe binds the callback exactly once; every Report call
// before that is a silent no-op. All methods are safe for concurrent
// use from worker goroutines, and Report does no blocking I/O of its
// own.
type ProgressReporter struct {
	mu       sync.RWMutex
	callback func(m.StatusUpdate)
}

// NewProgressReporter constructs an unsubscribed reporter.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{}
}

// Subscribe registers the callback. The first call wins; later calls
// are ignored.
func (r *ProgressReporter) Subscribe(callback func(m.StatusUpdate)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.callback != nil {
		return
	}

	r.callback = callback
}

// Report forwards the update to the subscribed callback, if any.
func (r *ProgressReporter) Report(update m.StatusUpdate) {
	r.mu.RLock()
	callback := r.callback
	r.mu.RUnlock()

	if callback == nil {
		return
	}

	callback(update)
}
