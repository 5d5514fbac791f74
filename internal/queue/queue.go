package queue

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var errJobPanicked = errors.New("queue: job panicked")

type Job struct {
	Fn   func() error
	Errc chan error
}

// RequestQueueManager runs HTTP handler jobs on a fixed pool of workers.
type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int
	wg         sync.WaitGroup
	once       sync.Once
}

func NewRequestQueueManager(queueSize int, maxWorkers int) *RequestQueueManager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			log.Debug().Int("worker", workerID).Msg("Worker started")
			for job := range rqm.JobQueue {
				err := runJob(job)
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			log.Debug().Int("worker", workerID).Msg("Worker stopped")
		}(i)
	}
}

// runJob keeps a panicking handler from taking the worker down with it.
func runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic in job")
			err = errJobPanicked
		}
	}()
	return job.Fn()
}

func (rqm *RequestQueueManager) EnqueueJob(job Job) {
	rqm.JobQueue <- job
}

// Shutdown stops accepting jobs and waits for in-flight ones. Safe to call
// more than once.
func (rqm *RequestQueueManager) Shutdown() {
	rqm.once.Do(func() {
		close(rqm.JobQueue)
	})
	rqm.wg.Wait()
}
