// File: /jobs/workspace_cleanup_job.go
package jobs

import (
	"sync"
	"sync/atomic"
	"time"

	"socialmedia-web/services"

	"go.uber.org/zap"
)

// WorkspaceCleanupJob periodically discards session workspaces that have
// been idle for longer than the TTL.
type WorkspaceCleanupJob struct {
	registry *services.WorkspaceRegistry
	ttl      time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewWorkspaceCleanupJob creates a new workspace cleanup job
func NewWorkspaceCleanupJob(registry *services.WorkspaceRegistry, ttl, interval time.Duration, logger *zap.Logger) *WorkspaceCleanupJob {
	return &WorkspaceCleanupJob{
		registry: registry,
		ttl:      ttl,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   logger.Named("workspace_cleanup"),
	}
}

// Start begins the cleanup job
func (j *WorkspaceCleanupJob) Start() {
	if !j.started.CompareAndSwap(false, true) {
		return
	}
	j.logger.Info("workspace cleanup job started", zap.Duration("ttl", j.ttl))

	go func() {
		defer close(j.stopped)
		for {
			select {
			case <-j.ticker.C:
				j.cleanup()
			case <-j.done:
				j.logger.Info("workspace cleanup job stopped")
				return
			}
		}
	}()
}

// Stop stops the cleanup job and waits for it to exit. It is safe to call
// more than once, and without a prior Start.
func (j *WorkspaceCleanupJob) Stop() {
	j.stopOnce.Do(func() {
		j.ticker.Stop()
		close(j.done)
	})
	if j.started.Load() {
		<-j.stopped
	}
}

func (j *WorkspaceCleanupJob) cleanup() {
	if n := j.registry.EvictIdle(j.ttl); n > 0 {
		j.logger.Info("evicted idle workspaces", zap.Int("count", n), zap.Int("remaining", j.registry.Len()))
	}
}
