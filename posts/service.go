package posts

import (
	"context"
	"log"
	"time"

	"github.com/user/bloghub-go/apperror"
)

// AvatarResolver maps author usernames to profile picture URLs. Usernames without
// a user record are absent from the result.
type AvatarResolver interface {
	ProfilePictures(ctx context.Context, usernames []string) (map[string]string, error)
}

// UserSearcher answers username searches.
type UserSearcher interface {
	SearchUsernames(ctx context.Context, substr string, skip, limit int) ([]UserCard, error)
}

// CreatedNotifier is told about every committed post. It must not block.
type CreatedNotifier interface {
	NotifyPostCreated(ctx context.Context, post *Post)
}

// Events publishes domain events after commits. Errors are logged, never returned
// to API callers.
type Events interface {
	PostCreated(ctx context.Context, post *Post) error
	PostToggled(ctx context.Context, post *Post, viewer string, kind ToggleKind, active bool) error
	PostDeleted(ctx context.Context, post *Post) error
}

// Deps are the collaborators of Service. Store and Avatars are required.
type Deps struct {
	Store    Store
	Avatars  AvatarResolver
	Users    UserSearcher
	Notifier CreatedNotifier
	Events   Events
}

// Service holds post business logic. It keeps no mutable state of its own.
type Service struct {
	store    Store
	avatars  AvatarResolver
	users    UserSearcher
	notifier CreatedNotifier
	events   Events
	now      func() time.Time
}

// NewService creates a Service. Missing optional collaborators are replaced by no-ops.
func NewService(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		avatars:  d.Avatars,
		users:    d.Users,
		notifier: d.Notifier,
		events:   d.Events,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.events == nil {
		s.events = NopEvents{}
	}
	return s
}

// CreatePost stores a new post by author, then hands it to the notifier. Notifier
// and event failures never fail the request: the post has already committed.
func (s *Service) CreatePost(ctx context.Context, author string, req CreatePostRequest) (*Post, error) {
	if author == "" {
		return nil, apperror.NewAuthError("authentication required", nil)
	}
	if err := apperror.ValidateStruct(req); err != nil {
		return nil, err
	}
	category, err := ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	visibility, err := ParseVisibility(req.Visibility)
	if err != nil {
		return nil, err
	}

	post, err := s.store.CreatePost(ctx, &Post{
		Title:      req.Title,
		Category:   category,
		Content:    req.Content,
		Tags:       NormalizeTags(req.Tags),
		Visibility: visibility,
		Username:   author,
		Likes:      []string{},
		Saves:      []string{},
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	// Detached from the request so an early client disconnect does not cancel fan-out.
	bg := context.WithoutCancel(ctx)
	s.notifier.NotifyPostCreated(bg, post)
	if err := s.events.PostCreated(bg, post); err != nil {
		log.Printf("[posts] publish post.created %s: %v", post.ID, err)
	}
	return post, nil
}

// GetPost returns a single post with content and the author's avatar. Private
// posts of other authors are reported as missing.
func (s *Service) GetPost(ctx context.Context, viewer, id string) (*Post, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(viewer) {
		return nil, apperror.NewNotFoundError("post not found", nil)
	}
	if err := s.attachAvatars(ctx, []*Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost edits title, content, category and visibility of the viewer's own post.
func (s *Service) UpdatePost(ctx context.Context, viewer, id string, upd PostUpdate) (*Post, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if err := apperror.ValidateStruct(upd); err != nil {
		return nil, err
	}
	if upd.Category, err = ParseCategory(string(upd.Category)); err != nil {
		return nil, err
	}
	if upd.Visibility, err = ParseVisibility(string(upd.Visibility)); err != nil {
		return nil, err
	}
	return s.store.UpdatePost(ctx, id, viewer, upd)
}

// DeletePost removes the viewer's own post.
func (s *Service) DeletePost(ctx context.Context, viewer, id string) (*Post, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	post, err := s.store.DeletePost(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if err := s.events.PostDeleted(context.WithoutCancel(ctx), post); err != nil {
		log.Printf("[posts] publish post.deleted %s: %v", post.ID, err)
	}
	return post, nil
}

// AuthorPosts lists every post of author visible to viewer, newest first, with
// the author's totals.
func (s *Service) AuthorPosts(ctx context.Context, viewer, author string) ([]Post, *AuthorStats, error) {
	list, err := s.store.FindPosts(ctx, Query{
		ByAuthors: true,
		Authors:   []string{author},
		Viewer:    viewer,
		Sort:      SortNewest,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.attachAvatars(ctx, ptrs(list)); err != nil {
		return nil, nil, err
	}
	stats, err := s.store.AuthorStats(ctx, author, viewer)
	if err != nil {
		return nil, nil, err
	}
	return list, stats, nil
}

// SiteStats returns post totals across the site.
func (s *Service) SiteStats(ctx context.Context) (*SiteStats, error) {
	return s.store.SiteStats(ctx)
}

// attachAvatars sets ProfilePicture on every post, nil when the author is unknown.
func (s *Service) attachAvatars(ctx context.Context, list []*Post) error {
	if len(list) == 0 {
		return nil
	}
	names := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		if _, ok := seen[p.Username]; !ok {
			seen[p.Username] = struct{}{}
			names = append(names, p.Username)
		}
	}
	pics, err := s.avatars.ProfilePictures(ctx, names)
	if err != nil {
		return err
	}
	for _, p := range list {
		if pic, ok := pics[p.Username]; ok {
			p.ProfilePicture = &pic
		} else {
			p.ProfilePicture = nil
		}
	}
	return nil
}

func ptrs(list []Post) []*Post {
	out := make([]*Post, len(list))
	for i := range list {
		out[i] = &list[i]
	}
	return out
}

type nopNotifier struct{}

func (nopNotifier) NotifyPostCreated(context.Context, *Post) {}

// NopEvents discards every event.
type NopEvents struct{}

func (NopEvents) PostCreated(context.Context, *Post) error { return nil }
func (NopEvents) PostToggled(context.Context, *Post, string, ToggleKind, bool) error {
	return nil
}
func (NopEvents) PostDeleted(context.Context, *Post) error { return nil }
