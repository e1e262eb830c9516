package posts

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/bloghub-go/apperror"
)

// memUser is the slice of a user record the post store touches.
type memUser struct {
	following []string
	liked     []string
	saved     []string
}

// memStore is an in-memory Store. InToggleTx restores a snapshot when fn fails.
type memStore struct {
	mu    sync.Mutex
	posts map[string]*Post
	users map[string]*memUser
}

func newMemStore() *memStore {
	return &memStore{posts: map[string]*Post{}, users: map[string]*memUser{}}
}

var _ Store = (*memStore)(nil)

func clonePost(p *Post) *Post {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.Likes = slices.Clone(p.Likes)
	c.Saves = slices.Clone(p.Saves)
	return &c
}

func (s *memStore) addUser(name string, following ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = &memUser{following: following}
}

// seed inserts p as is, filling in id, timestamps and empty sets.
func (s *memStore) seed(p Post) *Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Saves == nil {
		p.Saves = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.LikesCount = len(p.Likes)
	s.posts[p.ID] = clonePost(&p)
	return clonePost(&p)
}

func (s *memStore) post(id string) *Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

func (s *memStore) userRefs(name string, kind ToggleKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[name]
	if !ok {
		return nil
	}
	if kind == ToggleSave {
		return slices.Clone(u.saved)
	}
	return slices.Clone(u.liked)
}

func (s *memStore) CreatePost(_ context.Context, p *Post) (*Post, error) {
	c := *p
	c.ID = ""
	return s.seed(c), nil
}

func (s *memStore) GetPost(_ context.Context, id string) (*Post, error) {
	if p := s.post(id); p != nil {
		return p, nil
	}
	return nil, apperror.NewNotFoundError("post not found", nil)
}

func (s *memStore) UpdatePost(_ context.Context, id, author string, upd PostUpdate) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperror.NewNotFoundError("post not found", nil)
	}
	if p.Username != author {
		return nil, apperror.NewUnauthorizedError("only the author can modify this post", nil)
	}
	p.Title, p.Category, p.Content, p.Visibility = upd.Title, upd.Category, upd.Content, upd.Visibility
	return clonePost(p), nil
}

func (s *memStore) DeletePost(_ context.Context, id, author string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperror.NewNotFoundError("post not found", nil)
	}
	if p.Username != author {
		return nil, apperror.NewUnauthorizedError("only the author can delete this post", nil)
	}
	delete(s.posts, id)
	for _, u := range s.users {
		u.liked = slices.DeleteFunc(u.liked, func(v string) bool { return v == id })
		u.saved = slices.DeleteFunc(u.saved, func(v string) bool { return v == id })
	}
	return p, nil
}

func (q Query) matches(p *Post) bool {
	if p.Visibility == VisibilityPrivate && p.Username != q.Viewer {
		return false
	}
	if q.ByAuthors && !slices.Contains(q.Authors, p.Username) {
		return false
	}
	if q.ByIDs && !slices.Contains(q.IDs, p.ID) {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Popular && p.LikesCount <= 0 {
		return false
	}
	if q.TitleContains != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.TitleContains)) {
		return false
	}
	if q.Tag != "" && !slices.Contains(p.Tags, q.Tag) {
		return false
	}
	return true
}

func (s *memStore) matching(q Query) []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Post
	for _, p := range s.posts {
		if q.matches(p) {
			out = append(out, *clonePost(p))
		}
	}
	return out
}

func (s *memStore) FindPosts(_ context.Context, q Query) ([]Post, error) {
	list := s.matching(q)
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if q.Sort == SortPopular && a.LikesCount != b.LikesCount {
			return a.LikesCount > b.LikesCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if q.Skip >= len(list) {
		return []Post{}, nil
	}
	list = list[q.Skip:]
	if q.Limit > 0 && q.Limit < len(list) {
		list = list[:q.Limit]
	}
	if !q.WithContent {
		for i := range list {
			list[i].Content = ""
		}
	}
	return list, nil
}

func (s *memStore) CountPosts(_ context.Context, q Query) (int64, error) {
	return int64(len(s.matching(q))), nil
}

func (s *memStore) UserPostIDs(_ context.Context, username string, kind ToggleKind) ([]string, error) {
	s.mu.Lock()
	_, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return s.userRefs(username, kind), nil
}

func (s *memStore) UserFollowing(_ context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return slices.Clone(u.following), nil
}

func (s *memStore) AuthorStats(_ context.Context, author, viewer string) (*AuthorStats, error) {
	list := s.matching(Query{ByAuthors: true, Authors: []string{author}, Viewer: viewer})
	st := &AuthorStats{TotalPosts: int64(len(list))}
	for _, p := range list {
		st.TotalLikes += int64(p.LikesCount)
	}
	return st, nil
}

func (s *memStore) SiteStats(_ context.Context) (*SiteStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &SiteStats{TotalBlogs: int64(len(s.posts))}
	writers := map[string]bool{}
	for _, p := range s.posts {
		writers[p.Username] = true
		st.TotalLikes += int64(p.LikesCount)
	}
	st.TotalWriters = int64(len(writers))
	return st, nil
}

func (s *memStore) InToggleTx(_ context.Context, fn func(tx ToggleTx) error) error {
	s.mu.Lock()
	postsSnap := make(map[string]*Post, len(s.posts))
	for id, p := range s.posts {
		postsSnap[id] = clonePost(p)
	}
	usersSnap := make(map[string]*memUser, len(s.users))
	for name, u := range s.users {
		usersSnap[name] = &memUser{
			following: slices.Clone(u.following),
			liked:     slices.Clone(u.liked),
			saved:     slices.Clone(u.saved),
		}
	}
	s.mu.Unlock()

	if err := fn(memTx{s}); err != nil {
		s.mu.Lock()
		s.posts, s.users = postsSnap, usersSnap
		s.mu.Unlock()
		return err
	}
	return nil
}

type memTx struct {
	s *memStore
}

func (t memTx) LockPost(ctx context.Context, id string) (*Post, error) {
	return t.s.GetPost(ctx, id)
}

func (t memTx) SetPostMember(_ context.Context, id string, kind ToggleKind, username string, add bool) (*Post, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.posts[id]
	if !ok {
		return nil, apperror.NewNotFoundError("post not found", nil)
	}
	set := &p.Likes
	if kind == ToggleSave {
		set = &p.Saves
	}
	has := slices.Contains(*set, username)
	if has == add {
		return nil, apperror.NewConflictError("membership changed concurrently", nil)
	}
	if add {
		*set = append(*set, username)
	} else {
		*set = slices.DeleteFunc(*set, func(v string) bool { return v == username })
	}
	if kind == ToggleLike {
		if add {
			p.LikesCount++
		} else {
			p.LikesCount--
		}
	}
	return clonePost(p), nil
}

func (t memTx) SetUserRef(_ context.Context, username string, kind ToggleKind, id string, add bool) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	u, ok := t.s.users[username]
	if !ok {
		return false, nil
	}
	list := &u.liked
	if kind == ToggleSave {
		list = &u.saved
	}
	*list = slices.DeleteFunc(*list, func(v string) bool { return v == id })
	if add {
		*list = append(*list, id)
	}
	return true, nil
}

// Collaborator fakes shared by the package tests.

type mapAvatars map[string]string

func (m mapAvatars) ProfilePictures(_ context.Context, usernames []string) (map[string]string, error) {
	out := map[string]string{}
	for _, name := range usernames {
		if pic, ok := m[name]; ok {
			out[name] = pic
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	posts []*Post
}

func (n *recordingNotifier) NotifyPostCreated(_ context.Context, p *Post) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, p)
}

type toggleEvent struct {
	postID string
	viewer string
	kind   ToggleKind
	active bool
}

type recordingEvents struct {
	created []string
	toggled []toggleEvent
	deleted []string
}

func (e *recordingEvents) PostCreated(_ context.Context, p *Post) error {
	e.created = append(e.created, p.ID)
	return nil
}

func (e *recordingEvents) PostToggled(_ context.Context, p *Post, viewer string, kind ToggleKind, active bool) error {
	e.toggled = append(e.toggled, toggleEvent{postID: p.ID, viewer: viewer, kind: kind, active: active})
	return nil
}

func (e *recordingEvents) PostDeleted(_ context.Context, p *Post) error {
	e.deleted = append(e.deleted, p.ID)
	return nil
}

type fakeUserSearch struct {
	cards     []UserCard
	lastSkip  int
	lastLimit int
	lastValue string
}

func (f *fakeUserSearch) SearchUsernames(_ context.Context, substr string, skip, limit int) ([]UserCard, error) {
	f.lastValue, f.lastSkip, f.lastLimit = substr, skip, limit
	var out []UserCard
	for _, c := range f.cards {
		if strings.Contains(strings.ToLower(c.Username), strings.ToLower(substr)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type testEnv struct {
	svc      *Service
	store    *memStore
	notifier *recordingNotifier
	events   *recordingEvents
	users    *fakeUserSearch
	clock    time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		events:   &recordingEvents{},
		users:    &fakeUserSearch{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(Deps{
		Store:    env.store,
		Avatars:  mapAvatars{"alice": "https://img/alice.png", "bob": "", "carol": "https://img/carol.png"},
		Users:    env.users,
		Notifier: env.notifier,
		Events:   env.events,
	})
	env.svc.now = func() time.Time { return env.clock }
	return env
}

// at returns the env clock advanced by n minutes, for ordering seeded posts.
func (e *testEnv) at(n int) time.Time {
	return e.clock.Add(time.Duration(n) * time.Minute)
}
