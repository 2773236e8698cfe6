package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

// WorkerFunction handles one task. Any error it returns is fatal and kills
// the tomb the pool runs under.
type WorkerFunction = func(t *tomb.Tomb, task any) error

type WorkerPool struct {
	n     int      // number of workers
	tasks chan any // pending tasks
}

func NewWorkerPool(size uint) *WorkerPool {
	if size == 0 {
		size = 1
	}
	return &WorkerPool{
		n:     int(size),
		tasks: make(chan any, TASK_CHAN_SIZE),
	}
}

func (pool *WorkerPool) Size() int { return pool.n }

// Setup starts the workers under t. They run until t starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	for id := 0; id < pool.n; id++ {
		t.Go(func() error {
			return pool.worker(t, id, work)
		})
	}
}

// AddTask queues a task, giving up when t is dying. Returns whether the task
// was queued.
func (pool *WorkerPool) AddTask(t *tomb.Tomb, task any) bool {
	if !t.Alive() {
		return false
	}
	select {
	case <-t.Dying():
		return false
	case pool.tasks <- task:
		return true
	}
}

// Workers wait on tasks in the task queue and action them.
func (pool *WorkerPool) worker(t *tomb.Tomb, id int, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
