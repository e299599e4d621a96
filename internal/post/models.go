package post

import (
	"time"

	"backend-picshare/internal/auth"
)

type Post struct {
	ID            string       `json:"id"`
	Owner         auth.Profile `json:"owner"`
	ImageURL      string       `json:"image_url"`
	ImagePublicID string       `json:"image_public_id"`
	Caption       string       `json:"caption,omitempty"`
	Likes         []string     `json:"likes"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (p Post) HasLike(identityID string) bool {
	for _, id := range p.Likes {
		if id == identityID {
			return true
		}
	}
	return false
}

type CreatePostInput struct {
	ImageURL      string `json:"image_url"`
	ImagePublicID string `json:"image_public_id"`
	Caption       string `json:"caption"`
}

type LikeEvent struct {
	PostID     string `json:"post_id"`
	IdentityID string `json:"identity_id"`
	Likes      int    `json:"likes"`
}
