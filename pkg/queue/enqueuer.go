package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository persists new tasks.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer turns payloads into pending tasks.
type Enqueuer struct {
	repo     EnqueuerRepository
	defaults taskSpec
}

// NewEnqueuer creates an Enqueuer writing to repo.
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	e := &Enqueuer{repo: repo, defaults: defaultTaskSpec()}
	for _, opt := range opts {
		opt(&e.defaults)
	}
	return e, nil
}

// Enqueue stores payload as a pending task. The payload is JSON encoded;
// its type name is the task name unless WithTaskName is given.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	if payload == nil {
		return ErrPayloadNil
	}

	spec := e.defaults
	for _, opt := range opts {
		opt(&spec)
	}
	if !spec.priority.Valid() {
		return ErrInvalidPriority
	}

	task, err := newTask(payload, spec, time.Now())
	if err != nil {
		return err
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("create task %q in queue %q: %w", task.TaskName, task.Queue, err)
	}
	return nil
}

func newTask(payload any, spec taskSpec, now time.Time) (*Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %T payload: %w", payload, err)
	}

	name := spec.name
	if name == "" {
		name = qualifiedStructName(payload)
	}

	return &Task{
		ID:          uuid.New(),
		Queue:       spec.queue,
		TaskName:    name,
		Payload:     raw,
		Status:      TaskStatusPending,
		Priority:    spec.priority,
		MaxRetries:  spec.maxRetries,
		ScheduledAt: spec.scheduledAt(now),
		CreatedAt:   now,
	}, nil
}
