package users

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/posts"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newFakeStore(names ...string) *fakeStore {
	s := &fakeStore{users: map[string]*auth.User{}}
	for i, name := range names {
		s.users[name] = &auth.User{
			ID:             int64(i + 1),
			Username:       name,
			Email:          name + "@example.com",
			ProfilePicture: "https://img/" + name + ".png",
			Following:      []string{},
			Followers:      []string{},
		}
	}
	return s
}

func (s *fakeStore) user(name string) *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *s.users[name]
	return &u
}

func (s *fakeStore) GetUser(_ context.Context, username string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	c := *u
	c.Following = slices.Clone(u.Following)
	c.Followers = slices.Clone(u.Followers)
	return &c, nil
}

func (s *fakeStore) UpdateEmail(ctx context.Context, username, email string) (*auth.User, error) {
	s.mu.Lock()
	for _, u := range s.users {
		if u.Email == email && u.Username != username {
			s.mu.Unlock()
			return nil, apperror.NewConflictError("email already exists", nil)
		}
	}
	s.users[username].Email = email
	s.mu.Unlock()
	return s.GetUser(ctx, username)
}

func (s *fakeStore) UpdateProfilePicture(ctx context.Context, username, url string) (*auth.User, error) {
	s.mu.Lock()
	s.users[username].ProfilePicture = url
	s.mu.Unlock()
	return s.GetUser(ctx, username)
}

func (s *fakeStore) ToggleFollow(ctx context.Context, follower, target string) (*auth.User, bool, error) {
	s.mu.Lock()
	f, ok1 := s.users[follower]
	t, ok2 := s.users[target]
	if !ok1 || !ok2 {
		s.mu.Unlock()
		return nil, false, apperror.NewNotFoundError("user not found", nil)
	}
	active := !slices.Contains(f.Following, target)
	if active {
		f.Following = append(f.Following, target)
		t.Followers = append(t.Followers, follower)
	} else {
		f.Following = slices.DeleteFunc(f.Following, func(v string) bool { return v == target })
		t.Followers = slices.DeleteFunc(t.Followers, func(v string) bool { return v == follower })
	}
	s.mu.Unlock()
	u, err := s.GetUser(ctx, follower)
	return u, active, err
}

func (s *fakeStore) ProfilePictures(_ context.Context, usernames []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, name := range usernames {
		if u, ok := s.users[name]; ok {
			out[name] = u.ProfilePicture
		}
	}
	return out, nil
}

func (s *fakeStore) CountUsers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

type fakePosts struct {
	lastViewer string
}

func (p *fakePosts) AuthorPosts(_ context.Context, viewer, author string) ([]posts.Post, *posts.AuthorStats, error) {
	p.lastViewer = viewer
	return []posts.Post{{ID: "p1", Username: author}}, &posts.AuthorStats{TotalPosts: 1, TotalLikes: 2}, nil
}

func (p *fakePosts) SiteStats(context.Context) (*posts.SiteStats, error) {
	return &posts.SiteStats{TotalWriters: 2, TotalBlogs: 5, TotalLikes: 7}, nil
}

type recordingInvalidator struct {
	names []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, usernames ...string) error {
	r.names = append(r.names, usernames...)
	return nil
}

type usersEnv struct {
	svc         *Service
	store       *fakeStore
	posts       *fakePosts
	invalidator *recordingInvalidator
}

func newUsersEnv(names ...string) *usersEnv {
	env := &usersEnv{store: newFakeStore(names...), posts: &fakePosts{}, invalidator: &recordingInvalidator{}}
	env.svc = NewService(Deps{Store: env.store, Posts: env.posts, Invalidator: env.invalidator})
	return env
}

func strPtr(s string) *string { return &s }

func TestProfileHidesEmailFromOthers(t *testing.T) {
	env := newUsersEnv("alice", "bob")

	p, err := env.svc.Profile(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Empty(t, p.User.Email)
	assert.Equal(t, "bob", env.posts.lastViewer)
	assert.Equal(t, int64(1), p.Stats.TotalPosts)
	assert.Len(t, p.Posts, 1)

	p, err = env.svc.Profile(context.Background(), "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.User.Email)

	_, err = env.svc.Profile(context.Background(), "alice", "ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateProfileOnlyOwnProfile(t *testing.T) {
	env := newUsersEnv("alice", "bob")

	_, err := env.svc.UpdateProfile(context.Background(), "bob", "alice", UpdateProfileRequest{Email: strPtr("x@example.com")})
	assert.True(t, apperror.IsUnauthorizedError(err))
	assert.Equal(t, "alice@example.com", env.store.user("alice").Email)
}

func TestUpdateProfileFields(t *testing.T) {
	env := newUsersEnv("alice", "bob")
	ctx := context.Background()

	u, err := env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{Email: strPtr(" Alice@New.example ")})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example", u.Email)
	assert.Empty(t, env.invalidator.names)

	u, err = env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{ProfilePicture: strPtr("https://cdn.example/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.png", u.ProfilePicture)
	assert.Equal(t, []string{"alice"}, env.invalidator.names)

	_, err = env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{})
	assert.True(t, apperror.IsValidationError(err))

	_, err = env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{Email: strPtr("not-an-email")})
	assert.True(t, apperror.IsValidationError(err))

	_, err = env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{Email: strPtr("bob@example.com")})
	assert.True(t, apperror.IsConflictError(err))
}

func TestUpdateProfileTogglesFollow(t *testing.T) {
	env := newUsersEnv("alice", "bob")
	ctx := context.Background()

	u, err := env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{Following: "bob", Email: strPtr("ignored@example.com")})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, u.Following)
	assert.Equal(t, []string{"alice"}, env.store.user("bob").Followers)
	assert.Equal(t, "alice@example.com", env.store.user("alice").Email, "other fields are ignored")

	u, err = env.svc.UpdateProfile(ctx, "alice", "alice", UpdateProfileRequest{Following: "bob"})
	require.NoError(t, err)
	assert.Empty(t, u.Following)
	assert.Empty(t, env.store.user("bob").Followers)
}

func TestToggleFollowRules(t *testing.T) {
	env := newUsersEnv("alice")

	_, err := env.svc.ToggleFollow(context.Background(), "alice", "alice")
	assert.True(t, apperror.IsValidationError(err))

	_, err = env.svc.ToggleFollow(context.Background(), "alice", "ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRelations(t *testing.T) {
	env := newUsersEnv("alice", "bob", "carol")
	ctx := context.Background()
	for _, target := range []string{"carol", "bob"} {
		_, err := env.svc.ToggleFollow(ctx, "alice", target)
		require.NoError(t, err)
	}
	_, err := env.svc.ToggleFollow(ctx, "bob", "alice")
	require.NoError(t, err)

	cards, err := env.svc.Relations(ctx, "alice", RelationFollowing)
	require.NoError(t, err)
	assert.Equal(t, []posts.UserCard{
		{Username: "carol", ProfilePicture: "https://img/carol.png"},
		{Username: "bob", ProfilePicture: "https://img/bob.png"},
	}, cards)

	// A deleted account drops out of the list.
	env.store.mu.Lock()
	delete(env.store.users, "carol")
	env.store.mu.Unlock()
	cards, err = env.svc.Relations(ctx, "alice", RelationFollowing)
	require.NoError(t, err)
	assert.Equal(t, []posts.UserCard{{Username: "bob", ProfilePicture: "https://img/bob.png"}}, cards)

	cards, err = env.svc.Relations(ctx, "alice", RelationFollowers)
	require.NoError(t, err)
	assert.Equal(t, []posts.UserCard{{Username: "bob", ProfilePicture: "https://img/bob.png"}}, cards)
}

func TestProfilePicture(t *testing.T) {
	env := newUsersEnv("alice")

	pic, err := env.svc.ProfilePicture(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://img/alice.png", pic)

	_, err = env.svc.ProfilePicture(context.Background(), "ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSiteStats(t *testing.T) {
	env := newUsersEnv("alice", "bob", "carol")

	st, err := env.svc.SiteStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &SiteStatsResponse{TotalUsers: 3, TotalWriters: 2, TotalBlogs: 5, TotalLikes: 7}, st)
}

func TestParseRelationKind(t *testing.T) {
	k, err := ParseRelationKind("Followers")
	require.NoError(t, err)
	assert.Equal(t, RelationFollowers, k)

	_, err = ParseRelationKind("friends")
	assert.True(t, apperror.IsValidationError(err))
}
