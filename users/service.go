// This file, `service.go`, contains the business logic for profile operations.
package users

import (
	"context"
	"log"
	"strings"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/posts"
)

// PostLister is the part of posts.Service the profile pages need.
type PostLister interface {
	AuthorPosts(ctx context.Context, viewer, author string) ([]posts.Post, *posts.AuthorStats, error)
	SiteStats(ctx context.Context) (*posts.SiteStats, error)
}

// AvatarInvalidator drops cached avatars after a profile picture change.
type AvatarInvalidator interface {
	Invalidate(ctx context.Context, usernames ...string) error
}

// Deps are the collaborators of Service. Avatars defaults to Store and
// Invalidator may be nil when no cache is configured.
type Deps struct {
	Store       Store
	Posts       PostLister
	Avatars     posts.AvatarResolver
	Invalidator AvatarInvalidator
}

// Service provides profile management.
type Service struct {
	store       Store
	posts       PostLister
	avatars     posts.AvatarResolver
	invalidator AvatarInvalidator
}

func NewService(d Deps) *Service {
	s := &Service{store: d.Store, posts: d.Posts, avatars: d.Avatars, invalidator: d.Invalidator}
	if s.avatars == nil {
		s.avatars = d.Store
	}
	return s
}

// Profile returns username's profile page as seen by viewer. The email is only
// shown to the owner.
func (s *Service) Profile(ctx context.Context, viewer, username string) (*ProfileResponse, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if viewer != user.Username {
		user.Email = ""
	}
	list, stats, err := s.posts.AuthorPosts(ctx, viewer, user.Username)
	if err != nil {
		return nil, err
	}
	return &ProfileResponse{User: user, Stats: stats, Posts: list}, nil
}

// UpdateProfile applies req to the viewer's own profile. A request naming a
// user in Following toggles that follow and ignores the other fields.
func (s *Service) UpdateProfile(ctx context.Context, viewer, username string, req UpdateProfileRequest) (*auth.User, error) {
	if viewer == "" || viewer != username {
		return nil, apperror.NewUnauthorizedError("you can only update your own profile", nil)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &email
	}
	if err := apperror.ValidateStruct(req); err != nil {
		return nil, err
	}

	if target := strings.TrimSpace(req.Following); target != "" {
		return s.ToggleFollow(ctx, viewer, target)
	}
	if req.Email == nil && req.ProfilePicture == nil {
		return nil, apperror.NewValidationError("no data to update", nil)
	}

	var (
		user *auth.User
		err  error
	)
	if req.Email != nil {
		if user, err = s.store.UpdateEmail(ctx, viewer, *req.Email); err != nil {
			return nil, err
		}
	}
	if req.ProfilePicture != nil {
		if user, err = s.store.UpdateProfilePicture(ctx, viewer, *req.ProfilePicture); err != nil {
			return nil, err
		}
		if s.invalidator != nil {
			if err := s.invalidator.Invalidate(ctx, viewer); err != nil {
				log.Printf("[users] failed to invalidate cached avatar of %s: %v", viewer, err)
			}
		}
	}
	return user, nil
}

// ToggleFollow makes viewer follow target, or unfollow when already following.
func (s *Service) ToggleFollow(ctx context.Context, viewer, target string) (*auth.User, error) {
	if viewer == target {
		return nil, apperror.NewValidationError("you cannot follow yourself", nil)
	}
	user, active, err := s.store.ToggleFollow(ctx, viewer, target)
	if err != nil {
		return nil, err
	}
	if active {
		log.Printf("[users] %s now follows %s", viewer, target)
	}
	return user, nil
}

// Relations lists the viewer's following or followers with their avatars, in
// the order the relationships were made. Users that no longer exist are skipped.
func (s *Service) Relations(ctx context.Context, viewer string, kind RelationKind) ([]posts.UserCard, error) {
	user, err := s.store.GetUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	names := kind.of(user)
	pics, err := s.avatars.ProfilePictures(ctx, names)
	if err != nil {
		return nil, err
	}
	cards := make([]posts.UserCard, 0, len(names))
	for _, name := range names {
		if pic, ok := pics[name]; ok {
			cards = append(cards, posts.UserCard{Username: name, ProfilePicture: pic})
		}
	}
	return cards, nil
}

// ProfilePicture returns the viewer's avatar URL.
func (s *Service) ProfilePicture(ctx context.Context, viewer string) (string, error) {
	pics, err := s.avatars.ProfilePictures(ctx, []string{viewer})
	if err != nil {
		return "", err
	}
	pic, ok := pics[viewer]
	if !ok {
		return "", apperror.NewNotFoundError("user not found", nil)
	}
	return pic, nil
}

// SiteStats summarises users and posts.
func (s *Service) SiteStats(ctx context.Context) (*SiteStatsResponse, error) {
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.posts.SiteStats(ctx)
	if err != nil {
		return nil, err
	}
	return &SiteStatsResponse{
		TotalUsers:   users,
		TotalWriters: st.TotalWriters,
		TotalBlogs:   st.TotalBlogs,
		TotalLikes:   st.TotalLikes,
	}, nil
}
