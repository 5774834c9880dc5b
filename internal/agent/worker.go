package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
	"github.com/hospital-shifts/scheduler/internal/scheduling"
)

// TaskQueue is the slice of the agent task service the dispatcher needs.
type TaskQueue interface {
	NextPending(ctx context.Context, limit int) ([]models.AgentTask, error)
	Claim(ctx context.Context, t *models.AgentTask) (*models.AgentTask, error)
	Update(ctx context.Context, id int64, status models.AgentTaskStatus, result *string) (*models.AgentTask, error)
}

const finishTimeout = 5 * time.Second

// Dispatcher polls the queue for pending tasks and hands them to a fixed
// pool of workers. Each worker registers its own channel in the pool when
// idle, so at most maxWorkers tasks run at once.
type Dispatcher struct {
	queue      TaskQueue
	workflow   scheduling.WorkflowClient
	maxWorkers int
	interval   time.Duration
	log        *zap.Logger

	pool chan chan models.AgentTask
	wg   sync.WaitGroup

	mu       sync.Mutex
	inflight map[int64]struct{}
}

func NewDispatcher(queue TaskQueue, workflow scheduling.WorkflowClient, maxWorkers int, interval time.Duration, log *zap.Logger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Dispatcher{
		queue:      queue,
		workflow:   workflow,
		maxWorkers: maxWorkers,
		interval:   interval,
		log:        log,
		pool:       make(chan chan models.AgentTask, maxWorkers),
		inflight:   make(map[int64]struct{}),
	}
}

// Run blocks until ctx is cancelled, then waits for running tasks to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	for i := 0; i < d.maxWorkers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i+1)
	}
	d.log.Info("agent dispatcher started",
		zap.Int("workers", d.maxWorkers), zap.Duration("interval", d.interval), zap.String("mode", d.workflow.Mode()))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.dispatch(ctx)
	for {
		select {
		case <-ticker.C:
			d.dispatch(ctx)
		case <-ctx.Done():
			d.wg.Wait()
			d.log.Info("agent dispatcher stopped")
			return nil
		}
	}
}

// dispatch hands pending tasks to workers, waiting for one to become idle
// when the pool is busy.
func (d *Dispatcher) dispatch(ctx context.Context) {
	tasks, err := d.queue.NextPending(ctx, d.maxWorkers*2)
	if err != nil {
		if ctx.Err() == nil {
			d.log.Error("poll pending agent tasks", zap.Error(err))
		}
		return
	}
	for _, t := range tasks {
		if !d.track(t.ID) {
			continue
		}
		select {
		case work := <-d.pool:
			work <- t
		case <-ctx.Done():
			d.untrack(t.ID)
			return
		}
	}
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	work := make(chan models.AgentTask, 1)
	for {
		select {
		case d.pool <- work:
		case <-ctx.Done():
			return
		}
		select {
		case t := <-work:
			d.process(ctx, id, t)
			d.untrack(t.ID)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, workerID int, t models.AgentTask) {
	log := d.log.With(zap.Int("worker", workerID), zap.Int64("task_id", t.ID), zap.String("type", string(t.TaskType)))

	claimed, err := d.queue.Claim(ctx, &t)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrValidation) {
			log.Debug("task already taken", zap.Error(err))
			return
		}
		log.Error("claim agent task", zap.Error(err))
		return
	}

	started := time.Now()
	reply, err := d.execute(ctx, *claimed)

	// A cancelled ctx must not leave the task stuck in progress.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	status := models.TaskCompleted
	if err != nil {
		status = models.TaskFailed
		reply = err.Error()
	}
	if _, uerr := d.queue.Update(finishCtx, claimed.ID, status, &reply); uerr != nil {
		log.Error("record agent task result", zap.Error(uerr))
		return
	}
	log.Info("agent task finished", zap.String("status", string(status)), zap.Duration("took", time.Since(started)))
}

func (d *Dispatcher) execute(ctx context.Context, t models.AgentTask) (string, error) {
	if d.workflow.Mode() != ModeWorkflow {
		return TaskReply(t.TaskType), nil
	}
	return d.workflow.Run(ctx, TaskPrompt(t))
}

func (d *Dispatcher) track(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.inflight[id]; ok {
		return false
	}
	d.inflight[id] = struct{}{}
	return true
}

func (d *Dispatcher) untrack(id int64) {
	d.mu.Lock()
	delete(d.inflight, id)
	d.mu.Unlock()
}
