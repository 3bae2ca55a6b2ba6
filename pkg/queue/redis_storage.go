package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements the repository interfaces on top of Redis.
//
// Layout, with prefix p:
//
//	p:task:<id>            JSON encoded Task
//	p:pending:<queue>      sorted set of ready task ids scored by ScheduledAt (unix ms)
//	p:processing           sorted set of claimed task ids scored by LockedUntil (unix ms)
//	p:dead                 list of JSON encoded DeadTask
//
// A claim wins when its ZREM on the pending set removes the id, so two
// workers never run the same task.
type RedisStorage struct {
	client    redis.UniversalClient
	prefix    string
	scanLimit int64
	now       func() time.Time
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithRedisKeyPrefix sets the key namespace.
func WithRedisKeyPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisScanLimit sets how many ready ids per queue are considered on each claim.
func WithRedisScanLimit(n int64) RedisStorageOption {
	return func(s *RedisStorage) {
		if n > 0 {
			s.scanLimit = n
		}
	}
}

// NewRedisStorage creates a storage backed by client.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrRepositoryNil
	}
	s := &RedisStorage{
		client:    client,
		prefix:    "notifykit",
		scanLimit: 50,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStorage) taskKey(id uuid.UUID) string   { return s.prefix + ":task:" + id.String() }
func (s *RedisStorage) pendingKey(queue string) string { return s.prefix + ":pending:" + queue }
func (s *RedisStorage) processingKey() string          { return s.prefix + ":processing" }
func (s *RedisStorage) deadKey() string                { return s.prefix + ":dead" }

// CreateTask implements EnqueuerRepository.
func (s *RedisStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.ID, err)
	}

	ok, err := s.client.SetNX(ctx, s.taskKey(task.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("store task %s: %w", task.ID, err)
	}
	if !ok {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	return s.client.ZAdd(ctx, s.pendingKey(task.Queue), redis.Z{
		Score:  float64(task.ScheduledAt.UnixMilli()),
		Member: task.ID.String(),
	}).Err()
}

// ClaimTask implements WorkerRepository.
func (s *RedisStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := s.now()
	if err := s.releaseExpiredLocks(ctx, now); err != nil {
		return nil, err
	}

	candidates, err := s.readyTasks(ctx, queues, now)
	if err != nil {
		return nil, err
	}

	for len(candidates) > 0 {
		best := 0
		for i, t := range candidates {
			b := candidates[best]
			if t.Priority > b.Priority || (t.Priority == b.Priority && t.ScheduledAt.Before(b.ScheduledAt)) {
				best = i
			}
		}
		task := candidates[best]
		candidates = append(candidates[:best], candidates[best+1:]...)

		removed, err := s.client.ZRem(ctx, s.pendingKey(task.Queue), task.ID.String()).Result()
		if err != nil {
			return nil, fmt.Errorf("claim task %s: %w", task.ID, err)
		}
		if removed == 0 {
			continue // another worker got it first
		}

		lockUntil := now.Add(lockDuration)
		task.Status = TaskStatusProcessing
		task.LockedUntil = &lockUntil
		task.LockedBy = &workerID

		if err := s.save(ctx, task, func(pipe redis.Pipeliner) {
			pipe.ZAdd(ctx, s.processingKey(), redis.Z{Score: float64(lockUntil.UnixMilli()), Member: task.ID.String()})
		}); err != nil {
			return nil, err
		}
		return task, nil
	}

	return nil, ErrNoTaskToClaim
}

// CompleteTask implements WorkerRepository.
func (s *RedisStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.processing(ctx, taskID)
	if err != nil {
		return err
	}

	now := s.now()
	task.Status = TaskStatusCompleted
	task.ProcessedAt = &now
	task.LockedUntil = nil
	task.LockedBy = nil

	return s.save(ctx, task, func(pipe redis.Pipeliner) {
		pipe.ZRem(ctx, s.processingKey(), taskID.String())
	})
}

// FailTask implements WorkerRepository.
func (s *RedisStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	task, err := s.processing(ctx, taskID)
	if err != nil {
		return err
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil

	if task.RetryCount >= task.MaxRetries {
		task.Status = TaskStatusFailed
		return s.save(ctx, task, func(pipe redis.Pipeliner) {
			pipe.ZRem(ctx, s.processingKey(), taskID.String())
		})
	}

	task.Status = TaskStatusPending
	task.ScheduledAt = s.now().Add(retryBackoff(task.RetryCount))
	return s.save(ctx, task, func(pipe redis.Pipeliner) {
		pipe.ZRem(ctx, s.processingKey(), taskID.String())
		pipe.ZAdd(ctx, s.pendingKey(task.Queue), redis.Z{
			Score:  float64(task.ScheduledAt.UnixMilli()),
			Member: taskID.String(),
		})
	})
}

// MoveToDLQ implements WorkerRepository.
func (s *RedisStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(newDeadTask(task, s.now()))
	if err != nil {
		return fmt.Errorf("encode dead task %s: %w", taskID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.deadKey(), raw)
		pipe.Del(ctx, s.taskKey(taskID))
		pipe.ZRem(ctx, s.processingKey(), taskID.String())
		pipe.ZRem(ctx, s.pendingKey(task.Queue), taskID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("move task %s to DLQ: %w", taskID, err)
	}
	return nil
}

// ExtendLock implements WorkerRepository.
func (s *RedisStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	task, err := s.processing(ctx, taskID)
	if err != nil {
		return err
	}

	lockUntil := s.now().Add(duration)
	task.LockedUntil = &lockUntil
	return s.save(ctx, task, func(pipe redis.Pipeliner) {
		pipe.ZAdd(ctx, s.processingKey(), redis.Z{Score: float64(lockUntil.UnixMilli()), Member: taskID.String()})
	})
}

// DeadTasks returns the dead letter records in insertion order.
func (s *RedisStorage) DeadTasks(ctx context.Context) ([]DeadTask, error) {
	items, err := s.client.LRange(ctx, s.deadKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read dead tasks: %w", err)
	}
	out := make([]DeadTask, 0, len(items))
	for _, item := range items {
		var d DeadTask
		if err := json.Unmarshal([]byte(item), &d); err != nil {
			return nil, fmt.Errorf("decode dead task: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Task returns the stored task.
func (s *RedisStorage) Task(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	return s.load(ctx, taskID)
}

func (s *RedisStorage) readyTasks(ctx context.Context, queues []string, now time.Time) ([]*Task, error) {
	maxScore := strconv.FormatInt(now.UnixMilli(), 10)
	var tasks []*Task
	for _, q := range queues {
		ids, err := s.client.ZRangeByScore(ctx, s.pendingKey(q), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   maxScore,
			Count: s.scanLimit,
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("scan queue %q: %w", q, err)
		}
		for _, raw := range ids {
			id, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			task, err := s.load(ctx, id)
			if errors.Is(err, ErrTaskNotFound) {
				s.client.ZRem(ctx, s.pendingKey(q), raw)
				continue
			}
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// releaseExpiredLocks puts tasks whose lock ran out back into their pending set.
func (s *RedisStorage) releaseExpiredLocks(ctx context.Context, now time.Time) error {
	ids, err := s.client.ZRangeByScore(ctx, s.processingKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("scan expired locks: %w", err)
	}

	for _, raw := range ids {
		removed, err := s.client.ZRem(ctx, s.processingKey(), raw).Result()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", raw, err)
		}
		if removed == 0 {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		task, err := s.load(ctx, id)
		if err != nil {
			continue
		}
		task.Status = TaskStatusPending
		task.LockedUntil = nil
		task.LockedBy = nil
		if err := s.save(ctx, task, func(pipe redis.Pipeliner) {
			pipe.ZAdd(ctx, s.pendingKey(task.Queue), redis.Z{
				Score:  float64(task.ScheduledAt.UnixMilli()),
				Member: raw,
			})
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStorage) processing(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != TaskStatusProcessing {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return task, nil
}

func (s *RedisStorage) load(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	raw, err := s.client.Get(ctx, s.taskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", taskID, err)
	}
	return &task, nil
}

// save writes task and runs extra index updates in the same transaction.
func (s *RedisStorage) save(ctx context.Context, task *Task, index func(redis.Pipeliner)) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.taskKey(task.ID), raw, 0)
		if index != nil {
			index(pipe)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}
