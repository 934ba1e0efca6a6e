package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshRecorder struct {
	mu      sync.Mutex
	seen    []string
	release chan struct{}
}

func (r *refreshRecorder) refresh(_ context.Context, report string) error {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	r.seen = append(r.seen, report)
	r.mu.Unlock()
	return nil
}

func (r *refreshRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestRefresherProcessesEnqueuedReports(t *testing.T) {
	rec := &refreshRecorder{}
	refresher := NewRefresher(rec.refresh, RefresherConfig{Workers: 1, Interval: time.Hour})
	refresher.Start(context.Background())
	defer refresher.Stop()

	require.NoError(t, refresher.Enqueue("overview"))
	require.NoError(t, refresher.Enqueue("trends"))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"overview", "trends"}, rec.snapshot())
}

func TestRefresherDropsDuplicatePendingReports(t *testing.T) {
	rec := &refreshRecorder{release: make(chan struct{})}
	refresher := NewRefresher(rec.refresh, RefresherConfig{Workers: 1, Interval: time.Hour})
	refresher.Start(context.Background())
	defer refresher.Stop()

	// First report occupies the single worker until released, so the
	// duplicates below stay queued and collapse to one entry.
	require.NoError(t, refresher.Enqueue("blocker"))
	require.NoError(t, refresher.Enqueue("overview"))
	require.NoError(t, refresher.Enqueue("overview"))
	require.NoError(t, refresher.Enqueue("overview"))
	close(rec.release)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"blocker", "overview"}, rec.snapshot())
}

func TestRefresherEnqueueAllAndRejectsWhenStopped(t *testing.T) {
	rec := &refreshRecorder{}
	refresher := NewRefresher(rec.refresh, RefresherConfig{
		Workers:  2,
		Interval: time.Hour,
		Reports:  []string{"overview", "subjects", "moderation"},
	})

	require.Error(t, refresher.Enqueue("overview"))

	refresher.Start(context.Background())
	refresher.EnqueueAll()

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 3
	}, time.Second, 10*time.Millisecond)
	refresher.Stop()
}
