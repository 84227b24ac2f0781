package work

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadbasehq/leadbase/colors"
	"github.com/leadbasehq/leadbase/server/logger"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const MAX_FAILS = 4

var (
	DefaultTickerDuration = 5 * time.Millisecond
	TickerDurationOnError = 10 * time.Millisecond

	ErrDuplicateHandler = errors.New("handler with provided name already mapped")

	logg = logger.NewLogger()
)

type JobParams struct {
	Name    string
	Handler string
	Unique  bool
	Args    map[string]interface{}
}

type Handler func(map[string]interface{}) error

type worker struct {
	id                     string
	handlers               map[string]Handler
	stopChan               chan struct{}
	sleepBackoffsInSeconds []int64
}

func newWorker(sleepBackoffsInSeconds []int64) *worker {
	return &worker{
		id:                     makeIdentifier(),
		handlers:               make(map[string]Handler),
		stopChan:               make(chan struct{}),
		sleepBackoffsInSeconds: sleepBackoffsInSeconds,
	}
}

func (w *worker) registerHandler(name string, handler Handler) error {
	if _, ok := w.handlers[name]; ok {
		return ErrDuplicateHandler
	}

	w.handlers[name] = handler

	return nil
}

func (w *worker) start() {
	go w.loop()
}

func (w *worker) stop() {
	w.stopChan <- struct{}{}
}

// loop pulls enqueued jobs, claims them & runs their handlers. When the
// queue is empty, the wait between fetches backs off to reduce db hits.
func (w *worker) loop() {
	var consecutiveNoJobs int64

	sleepBackoffs := w.sleepBackoffsInSeconds
	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	logg.Infof("Starting worker %s", w.id)
	for {
		select {
		case <-w.stopChan:
			logg.Infof("Stopping worker %s", w.id)
			return
		case <-rateLimiter.C:
			job, err := models.NextJob(models.ENQUEUED_JOB)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					consecutiveNoJobs++
					idx := consecutiveNoJobs
					if idx >= int64(len(sleepBackoffs)) {
						idx = int64(len(sleepBackoffs)) - 1
					}
					rateLimiter.Reset(time.Duration(sleepBackoffs[idx]) * time.Second)
					continue
				}

				w.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			claimed, err := job.MarkAsClaimed()
			if err != nil {
				w.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			// Another worker got there first.
			if !claimed {
				continue
			}

			w.processJob(job)
			rateLimiter.Reset(DefaultTickerDuration)
			consecutiveNoJobs = 0
		}
	}
}

func (w *worker) processJob(job *models.Job) {
	handler, ok := w.handlers[job.Handler]
	if !ok {
		w.settleFailedJob(job, fmt.Errorf("no handler registered for %q", job.Handler))
		return
	}

	args := make(map[string]interface{})
	err := json.Unmarshal([]byte(job.Args), &args)
	if err != nil {
		w.settleFailedJob(job, err)
		return
	}

	err = handler(args)
	if err != nil {
		w.logError(err)
		w.settleFailedJob(job, err)
		return
	}

	w.markJobAsSuccessful(job)
}

// settleFailedJob requeues a failed job for retry, or marks it dead once
// it has failed MAX_FAILS times.
func (w *worker) settleFailedJob(job *models.Job, runError error) {
	var jobStatus *models.JobStatus
	var err error

	job.Fails++

	if job.Fails >= MAX_FAILS {
		jobStatus, err = models.FindJobStatus(models.DEAD_JOB)
	} else {
		jobStatus, err = models.FindJobStatus(models.ENQUEUED_JOB)
	}

	if err != nil {
		w.logError(err)
		return
	}

	err = job.Update(map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
		"fails":         job.Fails,
		"last_error":    runError.Error(),
	})
	if err != nil {
		w.logError(err)
	}
	w.logInfof("job with id=%v completed with status=%v", job.ID, jobStatus.Name)
}

func (w *worker) markJobAsSuccessful(job *models.Job) {
	jobStatus, err := models.FindJobStatus(models.SUCCESSFUL_JOB)
	if err != nil {
		w.logError(err)
		return
	}

	err = job.Update(map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
	})
	if err != nil {
		w.logError(err)
	}
	w.logInfof("job with id=%v completed with status=%v", job.ID, jobStatus.Name)
}

func (w *worker) logError(err error) {
	prefix := colors.Red(fmt.Sprintf("[worker %v] ", w.id))
	logg.Error(prefix, err)
}

func (w *worker) logInfof(format string, args ...interface{}) {
	prefix := colors.Yellow(fmt.Sprintf("[worker %v] ", w.id))
	logg.Infof(prefix+format, args...)
}

func makeIdentifier() string {
	b := make([]byte, 4)
	rand.Read(b)

	return fmt.Sprintf("%x", b)
}
