package posts

import (
	"context"
	"fmt"

	"github.com/user/bloghub-go/apperror"
)

// FeedKind selects the base predicate of a feed.
type FeedKind int

const (
	FeedFollowing FeedKind = iota // authors the viewer follows
	FeedAuthor                    // a single author
	FeedLiked                     // posts the viewer liked
	FeedSaved                     // posts the viewer saved
	FeedFamous                    // likes_count > 0, most liked first
)

func (k FeedKind) String() string {
	switch k {
	case FeedFollowing:
		return "updates"
	case FeedAuthor:
		return "user"
	case FeedLiked:
		return "liked"
	case FeedSaved:
		return "saved"
	case FeedFamous:
		return "famous"
	}
	return fmt.Sprintf("FeedKind(%d)", int(k))
}

// FeedRequest describes one page of a feed tab.
type FeedRequest struct {
	Kind     FeedKind
	Viewer   string
	Author   string // FeedAuthor only
	Category string // "All" or empty disables the filter
	Skip     int
	Limit    int
}

// FeedPage is a page of posts without content.
type FeedPage struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"hasMore"`
}

// ComposeFeed returns the posts of one feed page with author avatars attached.
// HasMore is skip+limit < total, where total counts every match of the same
// predicate regardless of pagination. For liked and saved feeds the viewer's id
// list is sliced by skip/limit before posts are loaded.
func (s *Service) ComposeFeed(ctx context.Context, req FeedRequest) (*FeedPage, error) {
	if req.Limit <= 0 {
		return nil, apperror.NewValidationError("limit must be greater than zero", nil)
	}
	if req.Skip < 0 {
		return nil, apperror.NewValidationError("skip must not be negative", nil)
	}
	category, err := ParseCategoryFilter(req.Category)
	if err != nil {
		return nil, err
	}

	q := Query{
		Category: category,
		Viewer:   req.Viewer,
		Sort:     SortNewest,
		Skip:     req.Skip,
		Limit:    req.Limit,
	}

	switch req.Kind {
	case FeedFollowing:
		following, err := s.store.UserFollowing(ctx, req.Viewer)
		if err != nil {
			return nil, err
		}
		q.ByAuthors, q.Authors = true, following
	case FeedAuthor:
		if req.Author == "" {
			return nil, apperror.NewValidationError("author is required", nil)
		}
		q.ByAuthors, q.Authors = true, []string{req.Author}
	case FeedLiked, FeedSaved:
		return s.composeIDFeed(ctx, req, q)
	case FeedFamous:
		q.Popular = true
		q.Sort = SortPopular
	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("unknown feed %s", req.Kind), nil)
	}

	total, err := s.store.CountPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	list, err := s.store.FindPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, list, hasMore(req.Skip, req.Limit, total))
}

func (s *Service) composeIDFeed(ctx context.Context, req FeedRequest, q Query) (*FeedPage, error) {
	kind := ToggleLike
	if req.Kind == FeedSaved {
		kind = ToggleSave
	}
	ids, err := s.store.UserPostIDs(ctx, req.Viewer, kind)
	if err != nil {
		return nil, err
	}

	countQ := q
	countQ.ByIDs, countQ.IDs = true, ids
	countQ.Skip, countQ.Limit = 0, 0
	total, err := s.store.CountPosts(ctx, countQ)
	if err != nil {
		return nil, err
	}

	q.ByIDs, q.IDs = true, window(ids, req.Skip, req.Limit)
	q.Skip, q.Limit = 0, 0
	list, err := s.store.FindPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, list, hasMore(req.Skip, req.Limit, total))
}

func (s *Service) page(ctx context.Context, list []Post, more bool) (*FeedPage, error) {
	if list == nil {
		list = []Post{}
	}
	for i := range list {
		list[i].Content = ""
	}
	if err := s.attachAvatars(ctx, ptrs(list)); err != nil {
		return nil, err
	}
	return &FeedPage{Posts: list, HasMore: more}, nil
}

// hasMore reports skip+limit < total without computing the sum, which can
// overflow for client supplied limits.
func hasMore(skip, limit int, total int64) bool {
	rest := total - int64(skip)
	return rest > 0 && int64(limit) < rest
}

// window returns ids[skip:skip+limit], clamped to the slice bounds.
func window(ids []string, skip, limit int) []string {
	if skip >= len(ids) {
		return []string{}
	}
	end := len(ids)
	if limit > 0 && limit < end-skip {
		end = skip + limit
	}
	return ids[skip:end]
}
