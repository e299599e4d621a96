package feed

import (
	"backend-picshare/internal/auth"
	"backend-picshare/internal/comment"
	"backend-picshare/internal/post"
)

type FeedPost struct {
	post.Post
	LatestComment *comment.Comment `json:"latest_comment"`
}

// DetailedPost keeps the raw like ids and adds the likers' public profiles.
type DetailedPost struct {
	post.Post
	LikedBy []auth.Profile `json:"liked_by"`
}

type Detail struct {
	Post     DetailedPost      `json:"post"`
	Comments []comment.Comment `json:"comments"`
}
