package asset

import (
	"context"
	"time"

	"backend-picshare/internal/db"

	"github.com/google/uuid"
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"

	maxAttempts = 5
)

type Task struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	PublicID  string    `json:"public_id"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Queue persists cleanup tasks for externally stored images. Tasks are
// written in the same transaction that deletes their post.
type Queue struct {
	db   db.Querier
	wake chan struct{}
}

func NewQueue(db db.Querier) *Queue {
	return &Queue{db: db, wake: make(chan struct{}, 1)}
}

// Enqueue writes through q, which is normally the caller's transaction.
func (s *Queue) Enqueue(ctx context.Context, q db.Querier, postID, publicID string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO asset_cleanup_tasks (id, post_id, public_id, status)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), postID, publicID, StatusPending)
	return err
}

// Wake asks the worker to drain the queue without waiting for its schedule.
func (s *Queue) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Queue) Pending(ctx context.Context, limit int) ([]Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, public_id, status, attempts, last_error, created_at
		FROM asset_cleanup_tasks
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.PostID, &t.PublicID, &t.Status, &t.Attempts, &t.LastError, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Queue) MarkDone(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE asset_cleanup_tasks
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, StatusDone)
	return err
}

// MarkFailed records one failed attempt and parks the task once it has used
// up its attempts.
func (s *Queue) MarkFailed(ctx context.Context, id string, cause error) error {
	_, err := s.db.Exec(ctx, `
		UPDATE asset_cleanup_tasks
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN $4 ELSE status END,
		    updated_at = now()
		WHERE id = $1
	`, id, cause.Error(), maxAttempts, StatusFailed)
	return err
}
