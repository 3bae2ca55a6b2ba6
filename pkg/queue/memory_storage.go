package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements the repository interfaces in process memory.
// Expired locks are released lazily on every claim.
type MemoryStorage struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
	order []uuid.UUID
	dead  []*DeadTask
	now   func() time.Time
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[uuid.UUID]*Task),
		now:   time.Now,
	}
}

// Close is a no-op kept for symmetry with networked storages.
func (ms *MemoryStorage) Close() error {
	return nil
}

// CreateTask implements EnqueuerRepository.
func (ms *MemoryStorage) CreateTask(_ context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	taskCopy := *task
	ms.tasks[task.ID] = &taskCopy
	ms.order = append(ms.order, task.ID)
	return nil
}

// ClaimTask implements WorkerRepository. Highest priority wins, earliest
// schedule breaks ties.
func (ms *MemoryStorage) ClaimTask(_ context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	ms.releaseExpiredLocks(now)

	var best *Task
	for _, id := range ms.order {
		task := ms.tasks[id]
		if task.Status != TaskStatusPending || !slices.Contains(queues, task.Queue) {
			continue
		}
		if task.ScheduledAt.After(now) {
			continue
		}
		if best == nil ||
			task.Priority > best.Priority ||
			(task.Priority == best.Priority && task.ScheduledAt.Before(best.ScheduledAt)) {
			best = task
		}
	}

	if best == nil {
		return nil, ErrNoTaskToClaim
	}

	lockUntil := now.Add(lockDuration)
	best.Status = TaskStatusProcessing
	best.LockedUntil = &lockUntil
	best.LockedBy = &workerID

	taskCopy := *best
	return &taskCopy, nil
}

// CompleteTask implements WorkerRepository.
func (ms *MemoryStorage) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, err := ms.processing(taskID)
	if err != nil {
		return err
	}

	now := ms.now()
	task.Status = TaskStatusCompleted
	task.ProcessedAt = &now
	task.LockedUntil = nil
	task.LockedBy = nil
	return nil
}

// FailTask implements WorkerRepository.
func (ms *MemoryStorage) FailTask(_ context.Context, taskID uuid.UUID, errorMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, err := ms.processing(taskID)
	if err != nil {
		return err
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil

	if task.RetryCount >= task.MaxRetries {
		task.Status = TaskStatusFailed
		return nil
	}

	task.Status = TaskStatusPending
	task.ScheduledAt = ms.now().Add(retryBackoff(task.RetryCount))
	return nil
}

// MoveToDLQ implements WorkerRepository.
func (ms *MemoryStorage) MoveToDLQ(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, ok := ms.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	ms.dead = append(ms.dead, newDeadTask(task, ms.now()))
	delete(ms.tasks, taskID)
	ms.order = slices.DeleteFunc(ms.order, func(id uuid.UUID) bool { return id == taskID })
	return nil
}

// ExtendLock implements WorkerRepository.
func (ms *MemoryStorage) ExtendLock(_ context.Context, taskID uuid.UUID, duration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, err := ms.processing(taskID)
	if err != nil {
		return err
	}

	lockUntil := ms.now().Add(duration)
	task.LockedUntil = &lockUntil
	return nil
}

// Task returns a copy of the stored task.
func (ms *MemoryStorage) Task(taskID uuid.UUID) (Task, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	task, ok := ms.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Tasks returns copies of all live tasks in creation order.
func (ms *MemoryStorage) Tasks() []Task {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]Task, 0, len(ms.order))
	for _, id := range ms.order {
		out = append(out, *ms.tasks[id])
	}
	return out
}

// DeadTasks returns copies of the dead letter records.
func (ms *MemoryStorage) DeadTasks() []DeadTask {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]DeadTask, 0, len(ms.dead))
	for _, d := range ms.dead {
		out = append(out, *d)
	}
	return out
}

func (ms *MemoryStorage) processing(taskID uuid.UUID) (*Task, error) {
	task, ok := ms.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if task.Status != TaskStatusProcessing {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return task, nil
}

// releaseExpiredLocks returns tasks held by crashed or stuck workers to the
// pending pool. Caller must hold ms.mu.
func (ms *MemoryStorage) releaseExpiredLocks(now time.Time) {
	for _, id := range ms.order {
		task := ms.tasks[id]
		if task.Status == TaskStatusProcessing && task.LockedUntil != nil && task.LockedUntil.Before(now) {
			task.Status = TaskStatusPending
			task.LockedUntil = nil
			task.LockedBy = nil
		}
	}
}
