package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

// fakeQueue keeps tasks in memory and applies the same forward-only rules
// as the task service.
type fakeQueue struct {
	mu      sync.Mutex
	tasks   map[int64]*models.AgentTask
	claims  int
	pollErr error
}

func newFakeQueue(tasks ...models.AgentTask) *fakeQueue {
	q := &fakeQueue{tasks: make(map[int64]*models.AgentTask)}
	for i := range tasks {
		t := tasks[i]
		q.tasks[t.ID] = &t
	}
	return q
}

func (q *fakeQueue) NextPending(_ context.Context, limit int) ([]models.AgentTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pollErr != nil {
		return nil, q.pollErr
	}
	var out []models.AgentTask
	for id := int64(1); id <= int64(len(q.tasks)); id++ {
		t, ok := q.tasks[id]
		if ok && t.Status == models.TaskPending {
			out = append(out, *t)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *fakeQueue) Claim(_ context.Context, t *models.AgentTask) (*models.AgentTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	cur := q.tasks[t.ID]
	if cur.Status != models.TaskPending {
		return nil, apperr.Conflict("task %d was modified concurrently", t.ID)
	}
	q.claims++
	cur.Status = models.TaskInProgress
	c := *cur
	return &c, nil
}

func (q *fakeQueue) Update(_ context.Context, id int64, status models.AgentTaskStatus, result *string) (*models.AgentTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	cur, ok := q.tasks[id]
	if !ok {
		return nil, apperr.NotFound("agent task %d not found", id)
	}
	if !cur.Status.CanTransition(status) {
		return nil, apperr.Invalid("bad transition")
	}
	cur.Status = status
	cur.Result = result
	c := *cur
	return &c, nil
}

func (q *fakeQueue) snapshot(id int64) models.AgentTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return *q.tasks[id]
}

func (q *fakeQueue) done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.Status == models.TaskPending || t.Status == models.TaskInProgress {
			return false
		}
	}
	return true
}

type stubWorkflow struct {
	mode  string
	reply func(ctx context.Context, input string) (string, error)
}

func (s stubWorkflow) Mode() string { return s.mode }

func (s stubWorkflow) Run(ctx context.Context, input string) (string, error) {
	return s.reply(ctx, input)
}

func pending(id int64, typ models.AgentTaskType) models.AgentTask {
	return models.AgentTask{ID: id, TaskType: typ, Status: models.TaskPending, Payload: "{}"}
}

func runDispatcher(t *testing.T, d *Dispatcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("dispatcher did not stop")
		}
	}
}

func TestDispatcherCompletesTasksInDemoMode(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := newFakeQueue(
		pending(1, models.TaskScheduleGeneration),
		pending(2, models.TaskScheduleValidation),
		pending(3, models.TaskDataSync),
	)
	wf := stubWorkflow{mode: ModeDemo, reply: func(context.Context, string) (string, error) {
		t.Error("workflow must not be called in demo mode")
		return "", nil
	}}
	d := NewDispatcher(q, wf, 2, 10*time.Millisecond, zaptest.NewLogger(t))
	stop := runDispatcher(t, d)

	require.Eventually(t, q.done, 2*time.Second, 5*time.Millisecond)
	stop()

	for id, want := range map[int64]string{1: replySchedule, 2: replyValidate, 3: replySync} {
		got := q.snapshot(id)
		assert.Equal(t, models.TaskCompleted, got.Status)
		require.NotNil(t, got.Result)
		assert.Equal(t, want, *got.Result)
	}
	assert.Equal(t, 3, q.claims)
}

func TestDispatcherUsesWorkflowAndRecordsFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := newFakeQueue(pending(1, models.TaskScheduleGeneration), pending(2, models.TaskDataSync))
	var mu sync.Mutex
	var prompts []string
	wf := stubWorkflow{mode: ModeWorkflow, reply: func(_ context.Context, input string) (string, error) {
		mu.Lock()
		prompts = append(prompts, input)
		mu.Unlock()
		if input == TaskPrompt(pending(2, models.TaskDataSync)) {
			return "", errors.New("upstream down")
		}
		return "drafted", nil
	}}
	d := NewDispatcher(q, wf, 1, 10*time.Millisecond, zaptest.NewLogger(t))
	stop := runDispatcher(t, d)

	require.Eventually(t, q.done, 2*time.Second, 5*time.Millisecond)
	stop()

	first := q.snapshot(1)
	assert.Equal(t, models.TaskCompleted, first.Status)
	assert.Equal(t, "drafted", *first.Result)

	second := q.snapshot(2)
	assert.Equal(t, models.TaskFailed, second.Status)
	assert.Equal(t, "upstream down", *second.Result)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, prompts, 2)
}

func TestDispatcherMarksInterruptedTaskFailed(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := newFakeQueue(pending(1, models.TaskScheduleGeneration))
	started := make(chan struct{})
	wf := stubWorkflow{mode: ModeWorkflow, reply: func(ctx context.Context, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	d := NewDispatcher(q, wf, 1, time.Hour, zaptest.NewLogger(t))
	stop := runDispatcher(t, d)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}
	stop()

	got := q.snapshot(1)
	assert.Equal(t, models.TaskFailed, got.Status)
	assert.Equal(t, context.Canceled.Error(), *got.Result)
}

func TestDispatcherDrainsQueuedTasksWithoutWaitingForTick(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := newFakeQueue(
		pending(1, models.TaskScheduleGeneration),
		pending(2, models.TaskScheduleValidation),
		pending(3, models.TaskDataSync),
	)
	d := NewDispatcher(q, stubWorkflow{mode: ModeDemo}, 1, time.Hour, zaptest.NewLogger(t))
	stop := runDispatcher(t, d)

	require.Eventually(t, q.done, 2*time.Second, 5*time.Millisecond)
	stop()
	for id := int64(1); id <= 3; id++ {
		assert.Equal(t, models.TaskCompleted, q.snapshot(id).Status, "task %d", id)
	}
}

func TestDispatcherSurvivesPollErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := newFakeQueue(pending(1, models.TaskDataSync))
	q.pollErr = errors.New("database is locked")
	d := NewDispatcher(q, stubWorkflow{mode: ModeDemo}, 1, 5*time.Millisecond, zaptest.NewLogger(t))
	stop := runDispatcher(t, d)

	time.Sleep(20 * time.Millisecond)
	q.mu.Lock()
	q.pollErr = nil
	q.mu.Unlock()

	require.Eventually(t, q.done, 2*time.Second, 5*time.Millisecond)
	stop()
	assert.Equal(t, models.TaskCompleted, q.snapshot(1).Status)
}

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(newFakeQueue(), stubWorkflow{mode: ModeDemo}, 0, 0, zaptest.NewLogger(t))
	assert.Equal(t, 1, d.maxWorkers)
	assert.Equal(t, 5*time.Second, d.interval)
}
