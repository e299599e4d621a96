package comment

import (
	"time"

	"backend-picshare/internal/auth"
	"backend-picshare/internal/post"
)

type Comment struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	Text      string       `json:"text"`
	Author    auth.Profile `json:"author"`
	Post      *post.Post   `json:"post,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type CreateCommentInput struct {
	Text string `json:"text"`
}
