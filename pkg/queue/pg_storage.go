package queue

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations holds the goose migrations for PostgresStorage under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// PgxConn is the subset of *pgxpool.Pool used by PostgresStorage.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStorage implements the repository interfaces on PostgreSQL.
// Claims use SELECT ... FOR UPDATE SKIP LOCKED so concurrent workers never
// pick the same row.
type PostgresStorage struct {
	db PgxConn
}

// NewPostgresStorage creates a storage over db. The schema comes from Migrations.
func NewPostgresStorage(db PgxConn) (*PostgresStorage, error) {
	if db == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresStorage{db: db}, nil
}

const taskColumns = `id, queue, task_name, payload, status, priority, retry_count, max_retries,
	scheduled_at, locked_until, locked_by, processed_at, error, created_at`

// CreateTask implements EnqueuerRepository.
func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO queue_tasks (id, queue, task_name, payload, status, priority, retry_count, max_retries, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.Queue, task.TaskName, task.Payload, task.Status, task.Priority,
		task.RetryCount, task.MaxRetries, task.ScheduledAt, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

// ClaimTask implements WorkerRepository. Rows whose lock expired are
// claimable again.
func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE queue_tasks SET
			status = 'processing',
			locked_until = now() + $3::interval,
			locked_by = $2
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = ANY($1)
			  AND scheduled_at <= now()
			  AND (status = 'pending' OR (status = 'processing' AND locked_until < now()))
			ORDER BY priority DESC, scheduled_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns,
		queues, workerID, lockDuration,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTaskToClaim
	}
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return task, nil
}

// CompleteTask implements WorkerRepository.
func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'completed', processed_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return fmt.Errorf("complete task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// FailTask implements WorkerRepository. Retries back off linearly by 30s.
func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks SET
			retry_count = retry_count + 1,
			error = $2,
			locked_until = NULL,
			locked_by = NULL,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at
				ELSE now() + make_interval(secs => (retry_count + 1) * 30) END
		WHERE id = $1 AND status = 'processing'`, taskID, errorMsg)
	if err != nil {
		return fmt.Errorf("fail task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// MoveToDLQ implements WorkerRepository.
func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := scanTask(tx.QueryRow(ctx, `DELETE FROM queue_tasks WHERE id = $1 RETURNING `+taskColumns, taskID))
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}

	dead := newDeadTask(task, time.Now())
	if _, err := tx.Exec(ctx, `
		INSERT INTO queue_dead_tasks (id, task_id, queue, task_name, payload, priority, error, retry_count, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		dead.ID, dead.TaskID, dead.Queue, dead.TaskName, dead.Payload, dead.Priority,
		dead.Error, dead.RetryCount, dead.FailedAt,
	); err != nil {
		return fmt.Errorf("insert dead task %s: %w", taskID, err)
	}

	return tx.Commit(ctx)
}

// ExtendLock implements WorkerRepository.
func (s *PostgresStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks SET locked_until = now() + $2::interval
		WHERE id = $1 AND status = 'processing'`, taskID, duration)
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// DeadTasks lists dead letter records, newest first.
func (s *PostgresStorage) DeadTasks(ctx context.Context, limit int) ([]DeadTask, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, task_id, queue, task_name, payload, priority, error, retry_count, failed_at
		FROM queue_dead_tasks ORDER BY failed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead tasks: %w", err)
	}
	defer rows.Close()

	var out []DeadTask
	for rows.Next() {
		var d DeadTask
		if err := rows.Scan(&d.ID, &d.TaskID, &d.Queue, &d.TaskName, &d.Payload, &d.Priority,
			&d.Error, &d.RetryCount, &d.FailedAt); err != nil {
			return nil, fmt.Errorf("scan dead task: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	var status string
	err := row.Scan(&t.ID, &t.Queue, &t.TaskName, &t.Payload, &status, &t.Priority,
		&t.RetryCount, &t.MaxRetries, &t.ScheduledAt, &t.LockedUntil, &t.LockedBy,
		&t.ProcessedAt, &t.Error, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	return &t, nil
}
