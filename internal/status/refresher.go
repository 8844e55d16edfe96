package status

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/taskqueue"
)

// refreshKey serializes all background status work onto one FIFO shard so
// a scheduled sync never overlaps a warmup.
const refreshKey = "status-refresh"

// Refresher periodically syncs the status logs in the background. Each
// tick is submitted through the task queue; failures stay inside the task
// boundary and never reach the embedder.
type Refresher struct {
	cache *Cache
	exec  *taskqueue.Executor
	cron  *cron.Cron
	log   zerolog.Logger
}

// NewRefresher schedules a non-forced log sync every interval. Intervals
// under a second are rounded up by the scheduler.
func NewRefresher(cache *Cache, exec *taskqueue.Executor, interval time.Duration, log zerolog.Logger) *Refresher {
	r := &Refresher{cache: cache, exec: exec, cron: cron.New(), log: log}
	r.cron.Schedule(cron.Every(interval), cron.FuncJob(r.tick))
	return r
}

func (r *Refresher) tick() {
	err := r.exec.Submit(context.Background(), refreshKey, taskqueue.TaskFunc(func(ctx context.Context) error {
		r.cache.SyncLogs(ctx, false)
		return nil
	}))
	if err != nil {
		r.log.Debug().Err(err).Msg("background status sync not enqueued")
	}
}

// Start begins the schedule.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts the schedule; queued work is left to drain with the task
// queue.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
