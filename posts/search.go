package posts

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/bloghub-go/apperror"
)

// SearchKind selects the field a search matches against.
type SearchKind int

const (
	SearchUsername SearchKind = iota
	SearchTitle
	SearchTag
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// ParseSearchKind maps the "category" query parameter to a SearchKind.
func ParseSearchKind(s string) (SearchKind, error) {
	switch strings.ToLower(s) {
	case "username":
		return SearchUsername, nil
	case "title":
		return SearchTitle, nil
	case "tag":
		return SearchTag, nil
	}
	return 0, apperror.NewValidationError(fmt.Sprintf("unknown search category %q", s), nil)
}

func (k SearchKind) String() string {
	switch k {
	case SearchUsername:
		return "username"
	case SearchTitle:
		return "title"
	case SearchTag:
		return "tag"
	}
	return fmt.Sprintf("SearchKind(%d)", int(k))
}

// SearchRequest is one page of a search. A zero Limit means DefaultSearchLimit.
type SearchRequest struct {
	Kind   SearchKind
	Value  string
	Viewer string
	Skip   int
	Limit  int
}

// SearchResult holds Users for username searches and Posts otherwise.
type SearchResult struct {
	Kind  SearchKind
	Users []UserCard
	Posts []Post
}

// Search resolves a username, title or tag search. Username and title match
// case-insensitive substrings; tag matches one tag exactly, ignoring case. Post
// results carry no content or visibility.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	value := strings.TrimSpace(req.Value)
	if value == "" {
		return nil, apperror.NewValidationError("search value is required", nil)
	}
	if req.Skip < 0 {
		return nil, apperror.NewValidationError("skip must not be negative", nil)
	}
	limit := req.Limit
	switch {
	case limit == 0:
		limit = DefaultSearchLimit
	case limit < 0:
		return nil, apperror.NewValidationError("limit must be greater than zero", nil)
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	if req.Kind == SearchUsername {
		if s.users == nil {
			return nil, apperror.NewInternalError("user search is not configured", nil)
		}
		cards, err := s.users.SearchUsernames(ctx, value, req.Skip, limit)
		if err != nil {
			return nil, err
		}
		if cards == nil {
			cards = []UserCard{}
		}
		return &SearchResult{Kind: req.Kind, Users: cards}, nil
	}

	q := Query{Viewer: req.Viewer, Sort: SortNewest, Skip: req.Skip, Limit: limit}
	switch req.Kind {
	case SearchTitle:
		q.TitleContains = value
	case SearchTag:
		q.Tag = strings.ToLower(value)
	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("unknown search category %s", req.Kind), nil)
	}

	list, err := s.store.FindPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Post{}
	}
	for i := range list {
		list[i].Content = ""
		list[i].Visibility = ""
	}
	if err := s.attachAvatars(ctx, ptrs(list)); err != nil {
		return nil, err
	}
	return &SearchResult{Kind: req.Kind, Posts: list}, nil
}
