package comment

import (
	"context"
	"strings"

	"backend-picshare/internal/apperr"
	"backend-picshare/internal/auth"
	"backend-picshare/internal/db"
	"backend-picshare/internal/events"
	"backend-picshare/internal/post"

	"github.com/google/uuid"
)

var ErrTextRequired = apperr.Validation("Comment text required",
	apperr.Violation{Field: "text", Message: "Comment text required"})

type PostFinder interface {
	Find(ctx context.Context, id string) (post.Post, error)
}

type Service struct {
	db     db.Querier
	posts  PostFinder
	events *events.Dispatcher
}

func NewService(db db.Querier, posts PostFinder, dispatcher *events.Dispatcher) *Service {
	return &Service{db: db, posts: posts, events: dispatcher}
}

const commentColumns = `
	c.id, c.post_id, c.text, c.created_at, c.updated_at,
	a.id, a.firstname, a.lastname`

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Text, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Firstname, &c.Author.Lastname)
	return c, err
}

func (s *Service) CreateComment(ctx context.Context, postID, text string, actor auth.Context) (Comment, error) {
	if err := actor.Require(); err != nil {
		return Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrTextRequired
	}
	target, err := s.posts.Find(ctx, postID)
	if err != nil {
		return Comment{}, err
	}

	row := s.db.QueryRow(ctx, `
		WITH c AS (
			INSERT INTO comments (id, post_id, author_id, text)
			VALUES ($1,$2,$3,$4)
			RETURNING *
		)
		SELECT`+commentColumns+`
		FROM c JOIN identities a ON a.id = c.author_id
	`, uuid.NewString(), target.ID, actor.IdentityID, text)
	created, err := scanComment(row)
	if err != nil {
		if db.IsNoRows(err) || db.IsForeignKeyViolation(err) {
			// post deleted after it was found
			return Comment{}, post.ErrUnavailable
		}
		return Comment{}, apperr.Internal(err)
	}
	created.Post = &target

	s.events.Emit(ctx, events.SubjectCommentCreated, created)
	return created, nil
}

// LatestComment returns nil when the post has no comments.
func (s *Service) LatestComment(ctx context.Context, postID string) (*Comment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+commentColumns+`
		FROM comments c JOIN identities a ON a.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC
		LIMIT 1
	`, postID)
	latest, err := scanComment(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, apperr.Internal(err)
	}
	return &latest, nil
}

// LatestForPosts is the batch form of LatestComment. Posts without comments
// are absent from the result.
func (s *Service) LatestForPosts(ctx context.Context, postIDs []string) (map[string]Comment, error) {
	if len(postIDs) == 0 {
		return map[string]Comment{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (c.post_id)`+commentColumns+`
		FROM comments c JOIN identities a ON a.id = c.author_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.post_id, c.created_at DESC
	`, postIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	latest := make(map[string]Comment, len(postIDs))
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		latest[c.PostID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return latest, nil
}

func (s *Service) ListForPost(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+commentColumns+`
		FROM comments c JOIN identities a ON a.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`, postID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return comments, nil
}
