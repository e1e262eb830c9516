// Package users manages BlogHub profiles: profile pages, email and avatar
// updates, the follow relationship and site statistics.
// This file, `models.go`, defines the request and response payloads.
package users

import (
	"fmt"
	"strings"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/posts"
)

// RelationKind selects one side of the follow relationship.
type RelationKind int

const (
	RelationFollowing RelationKind = iota
	RelationFollowers
)

// ParseRelationKind maps the "category" query parameter to a RelationKind.
func ParseRelationKind(s string) (RelationKind, error) {
	switch strings.ToLower(s) {
	case "following":
		return RelationFollowing, nil
	case "followers":
		return RelationFollowers, nil
	}
	return 0, apperror.NewValidationError(fmt.Sprintf("unknown relation %q", s), nil)
}

func (k RelationKind) String() string {
	if k == RelationFollowers {
		return "followers"
	}
	return "following"
}

// of returns the usernames on side k of user's relationships.
func (k RelationKind) of(u *auth.User) []string {
	if k == RelationFollowers {
		return u.Followers
	}
	return u.Following
}

// UpdateProfileRequest is the body of PATCH /profile/update/{username}. When
// Following is set the request toggles the follow of that user and the other
// fields are ignored.
type UpdateProfileRequest struct {
	Email          *string `json:"email,omitempty" validate:"omitempty,email" example:"alice@example.com"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,http_url" example:"https://img.example.com/alice.png"`
	Following      string  `json:"following,omitempty" example:"bob"`
}

// ProfileResponse is a user's profile page.
type ProfileResponse struct {
	User  *auth.User         `json:"user"`
	Stats *posts.AuthorStats `json:"stats"`
	Posts []posts.Post       `json:"posts"`
}

// UserResponse wraps an updated user.
type UserResponse struct {
	Message string     `json:"message"`
	User    *auth.User `json:"user"`
}

// PictureResponse carries the viewer's avatar URL.
type PictureResponse struct {
	ProfilePicture string `json:"profilePicture"`
}

// SiteStatsResponse is the public site summary.
type SiteStatsResponse struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalWriters int64 `json:"totalWriters"`
	TotalBlogs   int64 `json:"totalBlogs"`
	TotalLikes   int64 `json:"totalLikes"`
}
