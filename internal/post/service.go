package post

import (
	"context"
	"strings"

	"backend-picshare/internal/apperr"
	"backend-picshare/internal/auth"
	"backend-picshare/internal/db"
	"backend-picshare/internal/events"

	"github.com/google/uuid"
)

var (
	ErrUnavailable = apperr.NotFound("Post unavailable")
	ErrNotOwner    = apperr.Unauthorized("Not Authorized")
)

// CleanupQueue schedules removal of a stored image. Enqueue must write through
// q so the task commits or rolls back with the deletion.
type CleanupQueue interface {
	Enqueue(ctx context.Context, q db.Querier, postID, publicID string) error
	Wake()
}

type Service struct {
	db      db.Pool
	cleanup CleanupQueue
	events  *events.Dispatcher
}

func NewService(db db.Pool, cleanup CleanupQueue, dispatcher *events.Dispatcher) *Service {
	return &Service{db: db, cleanup: cleanup, events: dispatcher}
}

const postColumns = `
	p.id, p.image_url, p.image_public_id, p.caption, p.likes, p.created_at, p.updated_at,
	o.id, o.firstname, o.lastname`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.ImageURL, &p.ImagePublicID, &p.Caption, &p.Likes, &p.CreatedAt, &p.UpdatedAt,
		&p.Owner.ID, &p.Owner.Firstname, &p.Owner.Lastname)
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return p, err
}

func (s *Service) CreatePost(ctx context.Context, input CreatePostInput, actor auth.Context) (Post, error) {
	if err := actor.Require(); err != nil {
		return Post{}, err
	}
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	input.ImagePublicID = strings.TrimSpace(input.ImagePublicID)
	if input.ImageURL == "" {
		return Post{}, apperr.Validation("Image Required")
	}
	if input.ImagePublicID == "" {
		return Post{}, apperr.Validation("Image Required",
			apperr.Violation{Field: "image_public_id", Message: "Image public id is required"})
	}

	row := s.db.QueryRow(ctx, `
		WITH p AS (
			INSERT INTO posts (id, owner_id, image_url, image_public_id, caption)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING *
		)
		SELECT`+postColumns+`
		FROM p JOIN identities o ON o.id = p.owner_id
	`, uuid.NewString(), actor.IdentityID, input.ImageURL, input.ImagePublicID, strings.TrimSpace(input.Caption))
	created, err := scanPost(row)
	if err != nil {
		return Post{}, apperr.Internal(err)
	}

	s.events.Emit(ctx, events.SubjectPostCreated, created)
	return created, nil
}

func (s *Service) Find(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+postColumns+`
		FROM posts p JOIN identities o ON o.id = p.owner_id
		WHERE p.id = $1
	`, id)
	found, err := scanPost(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Post{}, ErrUnavailable
		}
		return Post{}, apperr.Internal(err)
	}
	return found, nil
}

func (s *Service) List(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+postColumns+`
		FROM posts p JOIN identities o ON o.id = p.owner_id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}

// DeletePost removes an owned post and queues its image for cleanup in the
// same transaction. The image store is never called inline.
func (s *Service) DeletePost(ctx context.Context, postID string, actor auth.Context) (Post, error) {
	if err := actor.Require(); err != nil {
		return Post{}, err
	}
	existing, err := s.Find(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if existing.Owner.ID != actor.IdentityID {
		return Post{}, ErrNotOwner
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Post{}, apperr.Internal(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND owner_id = $2`, existing.ID, actor.IdentityID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Post{}, apperr.Internal(err)
	}
	if tag.RowsAffected() == 0 {
		// lost a race with another delete
		_ = tx.Rollback(ctx)
		return Post{}, ErrUnavailable
	}
	if err := s.cleanup.Enqueue(ctx, tx, existing.ID, existing.ImagePublicID); err != nil {
		_ = tx.Rollback(ctx)
		return Post{}, apperr.Internal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Post{}, apperr.Internal(err)
	}

	s.cleanup.Wake()
	s.events.Emit(ctx, events.SubjectPostDeleted, existing)
	return existing, nil
}

// ToggleLike flips the actor's membership in likes with one conditional
// update, so concurrent toggles by different identities never overwrite
// each other.
func (s *Service) ToggleLike(ctx context.Context, postID string, actor auth.Context) (Post, error) {
	if err := actor.Require(); err != nil {
		return Post{}, err
	}

	row := s.db.QueryRow(ctx, `
		WITH p AS (
			UPDATE posts
			SET likes = CASE
			        WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text)
			        ELSE array_append(likes, $2::text)
			    END,
			    updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT`+postColumns+`
		FROM p JOIN identities o ON o.id = p.owner_id
	`, postID, actor.IdentityID)
	updated, err := scanPost(row)
	if err != nil {
		if db.IsNoRows(err) {
			return Post{}, ErrUnavailable
		}
		return Post{}, apperr.Internal(err)
	}

	subject := events.SubjectPostUnliked
	if updated.HasLike(actor.IdentityID) {
		subject = events.SubjectPostLiked
	}
	s.events.Emit(ctx, subject, LikeEvent{PostID: updated.ID, IdentityID: actor.IdentityID, Likes: len(updated.Likes)})
	return updated, nil
}
