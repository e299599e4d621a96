package auth

import "time"

// Identity is a registered account. The password hash never leaves this
// package in serialized form.
type Identity struct {
	ID             string    `json:"id"`
	Firstname      string    `json:"firstname"`
	Lastname       string    `json:"lastname"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Friends        []string  `json:"friends"`
	FriendRequests []string  `json:"friend_requests"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is the public view of an identity populated into posts, likes and
// comments.
type Profile struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (i Identity) Profile() Profile {
	return Profile{ID: i.ID, Firstname: i.Firstname, Lastname: i.Lastname}
}

type SignupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Firstname       string `json:"firstname" validate:"required"`
	Lastname        string `json:"lastname" validate:"required"`
	Password        string `json:"password" validate:"min=5"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	TokenType string   `json:"token_type"`
	ExpiresIn int64    `json:"expires_in"`
	Identity  Identity `json:"identity"`
}
