// Package posts implements BlogHub's post model: authoring, the like/save toggle,
// feed composition and search.
package posts

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/bloghub-go/apperror"
)

// Category is one of the fixed post categories.
type Category string

// CategoryAll is a filter sentinel meaning "no category filter". It is never stored.
const CategoryAll Category = "All"

// CategoryOther is the default category for new posts.
const CategoryOther Category = "Other"

// Categories lists every storable category in display order.
var Categories = []Category{
	"Tech", "Lifestyle", "Health", "Education", "Travel", "Finance", "Food",
	"Entertainment", "Sports", "Fashion", "Music", "Politics", "Science", "Art",
	"Business", "Environment", CategoryOther,
}

// ParseCategory validates a category for storage. An empty value becomes Other.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !slices.Contains(Categories, c) {
		return "", apperror.NewValidationError(fmt.Sprintf("unknown category %q", s), nil)
	}
	return c, nil
}

// ParseCategoryFilter validates a category used as a filter. "All" and "" disable
// the filter and yield the empty Category.
func ParseCategoryFilter(s string) (Category, error) {
	if s == "" || Category(s) == CategoryAll {
		return "", nil
	}
	return ParseCategory(s)
}

// Visibility is the post's audience flag.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility validates a visibility value. An empty value becomes public.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case "":
		return VisibilityPublic, nil
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(s), nil
	}
	return "", apperror.NewValidationError(fmt.Sprintf("unknown visibility %q", s), nil)
}

// ToggleKind selects which membership a toggle flips.
type ToggleKind int

const (
	ToggleLike ToggleKind = iota
	ToggleSave
)

func (k ToggleKind) String() string {
	if k == ToggleSave {
		return "save"
	}
	return "like"
}

// Post is a blog post. Feed and search projections leave Content empty, and
// search additionally drops Visibility.
type Post struct {
	ID             string     `json:"_id"`
	Title          string     `json:"title"`
	Category       Category   `json:"category"`
	Content        string     `json:"content,omitempty"`
	Tags           []string   `json:"tags"`
	Visibility     Visibility `json:"visibility,omitempty"`
	Username       string     `json:"username"`
	Likes          []string   `json:"likes"`
	LikesCount     int        `json:"likes_count"`
	Saves          []string   `json:"saves"`
	CreatedAt      time.Time  `json:"created_at"`
	ProfilePicture *string    `json:"profilePicture"`
}

// members returns the username set a toggle of kind k operates on.
func (p *Post) members(k ToggleKind) []string {
	if k == ToggleSave {
		return p.Saves
	}
	return p.Likes
}

// VisibleTo reports whether viewer may read the post.
func (p *Post) VisibleTo(viewer string) bool {
	return p.Visibility != VisibilityPrivate || p.Username == viewer
}

// NormalizeTags trims, lowercases and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ParseID validates a post id and returns its canonical form.
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperror.NewValidationError(fmt.Sprintf("invalid post id %q", id), err)
	}
	return parsed.String(), nil
}

// CreatePostRequest is the body of POST /api/posts/add.
type CreatePostRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Category   string   `json:"category"`
	Content    string   `json:"content" validate:"required"`
	Tags       []string `json:"tags" validate:"max=20,dive,max=40"`
	Visibility string   `json:"visibility"`
}

// PostUpdate carries the author-editable fields.
type PostUpdate struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Category   Category   `json:"category"`
	Content    string     `json:"content" validate:"required"`
	Visibility Visibility `json:"visibility"`
}

// AuthorStats summarises an author's posts.
type AuthorStats struct {
	TotalPosts int64 `json:"totalPosts"`
	TotalLikes int64 `json:"totalLikes"`
}

// SiteStats summarises all posts.
type SiteStats struct {
	TotalWriters int64 `json:"totalWriters"`
	TotalBlogs   int64 `json:"totalBlogs"`
	TotalLikes   int64 `json:"totalLikes"`
}

// UserCard is the compact user projection used by search and relation lists.
type UserCard struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}
