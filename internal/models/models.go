package models

import "time"

// Role is the closed set of account types. Authorization decisions
// compare against these constants only, never raw strings.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type (
	UserDTO struct {
		Id       int64  `json:"id"`
		Username string `json:"username"`
		Password string `json:"-"` // bcrypt hash, never serialized
		Email    string `json:"eMail"`
		Type     Role   `json:"type"`
	}

	PostDTO struct {
		Id          int64     `json:"id"`
		Title       string    `json:"title"`
		Text        string    `json:"text"`
		AuthorId    int64     `json:"authorId"`
		IsPublished bool      `json:"isPublished"`
		CreatedAt   time.Time `json:"createdAt" fake:"{futuredate}"`
	}

	// PostPreviewDTO is the listing projection: a post annotated with
	// its author's username and comment count.
	PostPreviewDTO struct {
		PostDTO
		Author       string `json:"author"`
		CommentCount int64  `json:"commentCount"`
	}

	CommentDTO struct {
		Id          int64     `json:"id"`
		Text        string    `json:"text"`
		CommenterId int64     `json:"commenterId"`
		PostId      int64     `json:"parentId"`
		CreatedAt   time.Time `json:"createdAt" fake:"{futuredate}"`
	}

	// PostPatch is a partial update: nil fields are left untouched.
	// Setting IsPublished also re-stamps CreatedAt.
	PostPatch struct {
		Title       *string
		Text        *string
		IsPublished *bool
	}
)
