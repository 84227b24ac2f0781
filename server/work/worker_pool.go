package work

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/leadbasehq/leadbase/server/models"
	"github.com/pkg/errors"
)

type WorkerPool struct {
	Handlers    map[string]Handler
	workers     []*worker
	concurrency int
	started     bool
}

func NewWorkerPool(concurrency int) *WorkerPool {
	wp := WorkerPool{Handlers: make(map[string]Handler), concurrency: concurrency}

	for i := 0; i < concurrency; i++ {
		wp.workers = append(wp.workers, newWorker([]int64{0, 10, 100, 120}))
	}

	return &wp
}

// registerHandler binds a name to a job handler for all workers in pool
func (wp *WorkerPool) registerHandler(name string, handler Handler) error {
	if _, ok := wp.Handlers[name]; ok {
		return ErrDuplicateHandler
	}
	wp.Handlers[name] = handler

	for _, worker := range wp.workers {
		err := worker.registerHandler(name, handler)

		// Only panic on an unexpected error i.e !ErrDuplicateHandler
		if err != nil && !errors.Is(err, ErrDuplicateHandler) {
			logg.Panic(err)
		}
	}
	return nil
}

// enqueue adds a job to the queue(to be executed) by creating a db
// record based on the 'JobParams' provided
func (wp *WorkerPool) enqueue(job JobParams) error {
	if strings.TrimSpace(job.Name) == "" || strings.TrimSpace(job.Handler) == "" {
		return fmt.Errorf("both a name & handler is required for a job")
	}

	argsAsJSON, err := json.Marshal(job.Args)
	if err != nil {
		return err
	}

	return models.CreateJob(job.Name, job.Handler, string(argsAsJSON), job.Unique)
}

func (wp *WorkerPool) start() {
	if wp.started {
		return
	}
	wp.started = true

	for _, worker := range wp.workers {
		worker.start()
	}
}

func (wp *WorkerPool) stop() {
	if !wp.started {
		return
	}

	wg := sync.WaitGroup{}
	for _, w := range wp.workers {
		wg.Add(1)
		go func(w *worker) {
			w.stop()
			wg.Done()
		}(w)
	}
	wg.Wait()
	wp.started = false
}
