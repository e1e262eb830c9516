package posts

import "context"

// SortOrder selects the ordering of a post query. Ties always fall back to
// created_at desc, then id desc, so pages are stable.
type SortOrder int

const (
	SortNewest  SortOrder = iota // created_at desc
	SortPopular                  // likes_count desc
)

// Query is a predicate over posts plus ordering and pagination. Zero-valued
// filter fields are ignored; the ByAuthors/ByIDs flags distinguish "no filter"
// from "filter by an empty set" (which matches nothing).
type Query struct {
	ByAuthors bool
	Authors   []string

	ByIDs bool
	IDs   []string

	Category Category // empty = any category
	Popular  bool     // likes_count > 0

	TitleContains string // case-insensitive substring
	Tag           string // exact, already normalized

	// Viewer is always applied: private posts are only matched for their author.
	Viewer string

	Sort        SortOrder
	Skip        int
	Limit       int // 0 = unlimited
	WithContent bool
}

// Store persists posts. Implementations return apperror values: NotFound for
// missing rows, Database for driver failures.
type Store interface {
	CreatePost(ctx context.Context, p *Post) (*Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	// UpdatePost applies upd when author owns the post (Unauthorized otherwise).
	UpdatePost(ctx context.Context, id, author string, upd PostUpdate) (*Post, error)
	// DeletePost removes the post owned by author and scrubs its id from every
	// user's liked/saved lists in the same transaction.
	DeletePost(ctx context.Context, id, author string) (*Post, error)

	FindPosts(ctx context.Context, q Query) ([]Post, error)
	CountPosts(ctx context.Context, q Query) (int64, error)

	// UserPostIDs returns the viewer's liked or saved post ids in insertion order.
	UserPostIDs(ctx context.Context, username string, kind ToggleKind) ([]string, error)
	// UserFollowing returns the usernames the user follows.
	UserFollowing(ctx context.Context, username string) ([]string, error)

	AuthorStats(ctx context.Context, author, viewer string) (*AuthorStats, error)
	SiteStats(ctx context.Context) (*SiteStats, error)

	// InToggleTx runs fn in a single transaction; any error rolls everything back.
	InToggleTx(ctx context.Context, fn func(tx ToggleTx) error) error
}

// ToggleTx is the transactional surface used by the toggle engine.
type ToggleTx interface {
	// LockPost loads the post and holds it until the transaction ends.
	LockPost(ctx context.Context, id string) (*Post, error)
	// SetPostMember adds or removes username from the post's like/save set; for
	// likes the counter moves in the same statement.
	SetPostMember(ctx context.Context, id string, kind ToggleKind, username string, add bool) (*Post, error)
	// SetUserRef appends or removes id in the user's liked/saved list. It reports
	// false when the user does not exist.
	SetUserRef(ctx context.Context, username string, kind ToggleKind, id string, add bool) (bool, error)
}
