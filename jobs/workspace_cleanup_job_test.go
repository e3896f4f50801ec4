package jobs

import (
	"testing"
	"time"

	"socialmedia-web/services"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRegistry() *services.WorkspaceRegistry {
	return services.NewWorkspaceRegistry(func(token string) services.Backend {
		return services.NewAPIClient(services.APIClientOptions{BaseURL: "http://127.0.0.1:1"}, zap.NewNop()).WithToken(token)
	}, 10, zap.NewNop())
}

func TestCleanupEvictsIdleWorkspaces(t *testing.T) {
	registry := newRegistry()
	ws := registry.Get("s1", "me")

	job := NewWorkspaceCleanupJob(registry, time.Nanosecond, 5*time.Millisecond, zap.NewNop())
	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool { return registry.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, ws.Store.Closed())
}

func TestCleanupKeepsActiveWorkspaces(t *testing.T) {
	registry := newRegistry()
	registry.Get("s1", "me")

	job := NewWorkspaceCleanupJob(registry, time.Hour, time.Millisecond, zap.NewNop())
	job.Start()
	time.Sleep(20 * time.Millisecond)
	job.Stop()

	assert.Equal(t, 1, registry.Len())
}

func TestStopWaitsForLoop(t *testing.T) {
	job := NewWorkspaceCleanupJob(newRegistry(), time.Minute, time.Hour, zap.NewNop())
	job.Start()
	job.Stop()

	select {
	case <-job.stopped:
	default:
		t.Fatal("cleanup loop still running after Stop")
	}
}

func TestStopWithoutStart(t *testing.T) {
	job := NewWorkspaceCleanupJob(newRegistry(), time.Minute, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		job.Stop()
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a job that never started")
	}
}
