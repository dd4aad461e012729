package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/service/worker"
)

// mockReloader counts reload calls and returns scripted results
type mockReloader struct {
	mu      sync.Mutex
	calls   int
	changed bool
	err     error
}

func (m *mockReloader) Reload(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.changed, m.err
}

func (m *mockReloader) setResult(changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = changed
	m.err = err
}

func (m *mockReloader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestArtifactReloadWorker_PeriodicReload(t *testing.T) {
	reloader := &mockReloader{}
	reloader.setResult(true, nil)

	w := worker.NewArtifactReloadWorker(reloader, 20*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	waitFor(t, func() bool { return reloader.callCount() >= 3 })
}

func TestArtifactReloadWorker_Trigger(t *testing.T) {
	reloader := &mockReloader{}

	var mu sync.Mutex
	var observed []bool
	hook := func(changed bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, changed)
	}

	// polling disabled; only triggers reload
	w := worker.NewArtifactReloadWorker(reloader, 0, worker.WithReloadHook(hook))
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	gt.Value(t, reloader.callCount()).Equal(0)

	reloader.setResult(true, nil)
	w.Trigger()
	waitFor(t, func() bool { return reloader.callCount() == 1 })

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 1
	})
	mu.Lock()
	gt.Bool(t, observed[0]).True()
	mu.Unlock()
}

func TestArtifactReloadWorker_ContinuesAfterErrors(t *testing.T) {
	reloader := &mockReloader{}
	reloader.setResult(false, errors.New("bucket unavailable"))

	w := worker.NewArtifactReloadWorker(reloader, 10*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	waitFor(t, func() bool { return reloader.callCount() >= 2 })

	reloader.setResult(true, nil)
	before := reloader.callCount()
	waitFor(t, func() bool { return reloader.callCount() > before })
}

func TestArtifactReloadWorker_StopsCleanly(t *testing.T) {
	w := worker.NewArtifactReloadWorker(&mockReloader{}, time.Hour)
	gt.NoError(t, w.Start(context.Background())).Required()

	stopStart := time.Now()
	w.Stop()
	gt.Bool(t, time.Since(stopStart) < time.Second).True()
}

func TestArtifactReloadWorker_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewArtifactReloadWorker(&mockReloader{}, time.Hour)
	gt.NoError(t, w.Start(ctx)).Required()

	cancel()
	// Stop still returns once the loop has exited
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}
