package work

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/leadbasehq/leadbase/server/cron"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/pkg/errors"
)

const (
	MAX_CONCURRENCY = 1

	// Claimed jobs untouched for this long are assumed stuck & requeued.
	STALE_JOB_THRESHOLD = 10 * time.Minute
)

// WorkerPoolAdapter ties the db-backed worker pool to a cron scheduler,
// so callers can run jobs now, once in the future, or on a schedule.
type WorkerPoolAdapter struct {
	cronScheduler *gocron.Scheduler
	pool          WorkerPool
}

func NewWorkerAdapter(timeZone string) *WorkerPoolAdapter {
	return &WorkerPoolAdapter{
		cronScheduler: cron.NewCronScheduler(timeZone),
		pool:          *NewWorkerPool(MAX_CONCURRENCY),
	}
}

// Start starts the cron scheduler & worker pool
func (adapter *WorkerPoolAdapter) Start() error {
	logg.Info("Starting cron scheduler & worker pool")

	adapter.cronScheduler.Every(STALE_JOB_THRESHOLD).Tag("requeue_stale_jobs").Do(requeueStaleJobs)
	adapter.cronScheduler.StartAsync()
	adapter.pool.start()

	return nil
}

// Stop stops the cron scheduler & worker pool
func (adapter *WorkerPoolAdapter) Stop() error {
	logg.Info("Stopping cron scheduler & worker pool")
	adapter.cronScheduler.Stop()
	adapter.pool.stop()

	return nil
}

// Register binds a name to a handler.
func (adapter *WorkerPoolAdapter) Register(name string, handler Handler) error {
	return adapter.pool.registerHandler(name, handler)
}

// Perform sends a new job to the queue, to be executed as soon as a
// worker is available
func (adapter *WorkerPoolAdapter) Perform(job JobParams) error {
	logg.Infof("Enqueuing job: %v", job.Name)

	err := adapter.pool.enqueue(job)
	if errors.Is(err, models.ErrDuplicateJob) {
		logg.Warnf("Duplicate job already in queue for: %v", job.Name)
		return nil
	}

	if err != nil {
		return fmt.Errorf("error enqueuing job: %v, %v", job.Name, err)
	}

	return nil
}

// PerformIn enqueues the job after 'seconds' have elapsed, once.
func (adapter *WorkerPoolAdapter) PerformIn(seconds int, job JobParams) error {
	_, err := adapter.cronScheduler.Every(seconds).Seconds().LimitRunsTo(1).Tag(job.Name).
		Do(
			func(job JobParams) {
				err := adapter.Perform(job)
				if err != nil {
					logg.Error(err)
				}
			},
			job,
		)
	return err
}

// PeriodicallyPerform adds a job to the queue(to be executed)
// periodically, based on the 'cronExpression' provided
func (adapter *WorkerPoolAdapter) PeriodicallyPerform(cronExpression string, job JobParams) error {
	_, err := adapter.cronScheduler.Cron(cronExpression).Tag(job.Name).
		Do(
			func(job JobParams) {
				err := adapter.Perform(job)
				if err != nil {
					logg.Error(err)
				}
			},
			job,
		)
	return err
}

func (adapter *WorkerPoolAdapter) RemovePeriodicJob(jobName string) {
	adapter.cronScheduler.RemoveByTag(jobName)
}

func requeueStaleJobs() {
	requeued, err := models.RequeueStaleJobs(time.Now().Add(-STALE_JOB_THRESHOLD))
	if err != nil {
		logg.Errorf("error requeuing stale jobs: %v", err)
		return
	}

	if requeued > 0 {
		logg.Warnf("%v stale job(s) requeued", requeued)
	}
}
