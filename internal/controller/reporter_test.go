package controller

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/courselab/langs/internal/model"
)

func TestProgressReporter_NoOpBeforeSubscribe(t *testing.T) {
	reporter := NewProgressReporter()

	// Must not panic or block without a subscriber.
	reporter.Report(m.StatusUpdate{Message: "ignored"})
}

func TestProgressReporter_FirstSubscribeWins(t *testing.T) {
	reporter := NewProgressReporter()

	var first, second []m.StatusUpdate

	reporter.Subscribe(func(update m.StatusUpdate) { first = append(first, update) })
	reporter.Subscribe(func(update m.StatusUpdate) { second = append(second, update) })

	reporter.Report(m.StatusUpdate{Message: "one"})

	require.Len(t, first, 1)
	assert.Equal(t, "one", first[0].Message)
	assert.Empty(t, second)
}

func TestProgressReporter_ConcurrentWorkers(t *testing.T) {
	reporter := NewProgressReporter()

	var mu sync.Mutex
	var received []m.StatusUpdate

	reporter.Subscribe(func(update m.StatusUpdate) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, update)
	})

	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reporter.Report(m.StatusUpdate{Message: "tick"})
		}()
	}
	wg.Wait()

	assert.Len(t, received, workers)
}
