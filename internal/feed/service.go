// Package feed assembles the read views over posts and comments.
package feed

import (
	"context"
	"encoding/json"

	"backend-picshare/internal/apperr"
	"backend-picshare/internal/auth"
	"backend-picshare/internal/comment"
	"backend-picshare/internal/post"

	"github.com/rs/zerolog"
)

const minPostIDLength = 24

var ErrWrongURL = apperr.NotFound("Post unavailable! Wrong URL")

type PostReader interface {
	Find(ctx context.Context, id string) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
}

type CommentReader interface {
	LatestForPosts(ctx context.Context, postIDs []string) (map[string]comment.Comment, error)
	ListForPost(ctx context.Context, postID string) ([]comment.Comment, error)
}

type ProfileLoader interface {
	Profiles(ctx context.Context, ids []string) ([]auth.Profile, error)
}

// Cache stores the assembled feed per generation. Get reports the current
// generation even on a miss; Set must receive that generation so a list read
// before a concurrent mutation is never served after it.
type Cache interface {
	Get(ctx context.Context) (data []byte, gen int64, err error)
	Set(ctx context.Context, gen int64, data []byte) error
}

type Service struct {
	posts    PostReader
	comments CommentReader
	profiles ProfileLoader
	cache    Cache
	logger   zerolog.Logger
}

func NewService(posts PostReader, comments CommentReader, profiles ProfileLoader, cache Cache, logger zerolog.Logger) *Service {
	return &Service{posts: posts, comments: comments, profiles: profiles, cache: cache, logger: logger}
}

// ListPosts returns every post newest first with its latest comment. The
// caller must be authenticated before anything is read.
func (s *Service) ListPosts(ctx context.Context, actor auth.Context) ([]FeedPost, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	cached, gen, ok := s.cached(ctx)
	if ok {
		return cached, nil
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	latest, err := s.comments.LatestForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]FeedPost, len(posts))
	for i, p := range posts {
		items[i] = FeedPost{Post: p}
		if c, ok := latest[p.ID]; ok {
			items[i].LatestComment = &c
		}
	}
	s.store(ctx, gen, items)
	return items, nil
}

func (s *Service) GetPost(ctx context.Context, postID string, actor auth.Context) (Detail, error) {
	if err := actor.Require(); err != nil {
		return Detail{}, err
	}
	if len(postID) < minPostIDLength {
		return Detail{}, ErrWrongURL
	}

	found, err := s.posts.Find(ctx, postID)
	if err != nil {
		return Detail{}, err
	}
	likers, err := s.profiles.Profiles(ctx, found.Likes)
	if err != nil {
		return Detail{}, err
	}
	comments, err := s.comments.ListForPost(ctx, found.ID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		Post:     DetailedPost{Post: found, LikedBy: likers},
		Comments: comments,
	}, nil
}

// cached reports a hit with ok. gen is negative when the cache could not be
// read, which also disables the write back.
func (s *Service) cached(ctx context.Context) (items []FeedPost, gen int64, ok bool) {
	if s.cache == nil {
		return nil, -1, false
	}
	data, gen, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("feed cache read")
		return nil, -1, false
	}
	if data == nil {
		return nil, gen, false
	}
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn().Err(err).Msg("feed cache decode")
		return nil, gen, false
	}
	return items, gen, true
}

func (s *Service) store(ctx context.Context, gen int64, items []FeedPost) {
	if s.cache == nil || gen < 0 {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Warn().Err(err).Msg("feed cache encode")
		return
	}
	if err := s.cache.Set(ctx, gen, data); err != nil {
		s.logger.Warn().Err(err).Msg("feed cache write")
	}
}
