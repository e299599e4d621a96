// Package events fans mutation notifications out to the message bus and keeps
// derived read models (the feed cache) from serving stale data.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SubjectPostCreated    = "post.created"
	SubjectPostDeleted    = "post.deleted"
	SubjectPostLiked      = "post.liked"
	SubjectPostUnliked    = "post.unliked"
	SubjectCommentCreated = "comment.created"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Envelope struct {
	EventID    string          `json:"event_id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Dispatcher is nil-safe: a nil *Dispatcher drops every event.
type Dispatcher struct {
	publisher   Publisher
	invalidator Invalidator
	logger      zerolog.Logger
	now         func() time.Time
}

func NewDispatcher(publisher Publisher, invalidator Invalidator, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// Emit runs after the mutation committed. Failures are logged and never
// surface to the caller.
func (d *Dispatcher) Emit(ctx context.Context, subject string, payload any) {
	if d == nil {
		return
	}

	if d.invalidator != nil {
		if err := d.invalidator.Invalidate(ctx); err != nil {
			d.logger.Warn().Err(err).Str("subject", subject).Msg("feed cache invalidation failed")
		}
	}

	if d.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error().Err(err).Str("subject", subject).Msg("event encode failed")
		return
	}
	envelope, err := json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		Subject:    subject,
		OccurredAt: d.now().UTC(),
		Data:       data,
	})
	if err != nil {
		d.logger.Error().Err(err).Str("subject", subject).Msg("event encode failed")
		return
	}
	if err := d.publisher.Publish(ctx, subject, envelope); err != nil {
		d.logger.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
		return
	}
	d.logger.Debug().Str("subject", subject).Msg("event published")
}
