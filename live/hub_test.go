package live

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/posts"
)

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	hub := NewHub(4)
	_, a := hub.Subscribe()
	_, b := hub.Subscribe()

	n := hub.Broadcast(Event{Name: "x", Data: "{}"})
	assert.Equal(t, 2, n)
	assert.Equal(t, "x", (<-a).Name)
	assert.Equal(t, "x", (<-b).Name)
}

func TestSlowSubscriberMissesEvents(t *testing.T) {
	hub := NewHub(1)
	_, ch := hub.Subscribe()

	assert.Equal(t, 1, hub.Broadcast(Event{Name: "first"}))
	assert.Equal(t, 0, hub.Broadcast(Event{Name: "second"}), "buffer full")
	assert.Equal(t, "first", (<-ch).Name)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)
	id, ch := hub.Subscribe()
	require.Equal(t, 1, hub.Clients())

	hub.Unsubscribe(id)
	hub.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Clients())
	assert.Zero(t, hub.Broadcast(Event{Name: "x"}))
}

func TestPostEventsStreamOnlyPublicActivity(t *testing.T) {
	hub := NewHub(8)
	_, ch := hub.Subscribe()
	ctx := context.Background()
	public := &posts.Post{ID: "p1", Title: "Hello", Category: "Tech", Username: "alice", Visibility: posts.VisibilityPublic, LikesCount: 3}
	private := &posts.Post{ID: "p2", Username: "alice", Visibility: posts.VisibilityPrivate, LikesCount: 1}

	require.NoError(t, hub.PostCreated(ctx, private))
	require.NoError(t, hub.PostToggled(ctx, private, "bob", posts.ToggleLike, true))
	require.NoError(t, hub.PostToggled(ctx, public, "bob", posts.ToggleSave, true))
	require.NoError(t, hub.PostDeleted(ctx, private))
	assert.Empty(t, ch)

	require.NoError(t, hub.PostCreated(ctx, public))
	require.NoError(t, hub.PostToggled(ctx, public, "bob", posts.ToggleLike, true))
	require.NoError(t, hub.PostDeleted(ctx, public))

	ev := <-ch
	assert.Equal(t, EventPostCreated, ev.Name)
	assert.JSONEq(t, `{"_id":"p1","title":"Hello","category":"Tech","username":"alice"}`, ev.Data)
	ev = <-ch
	assert.Equal(t, EventPostLikes, ev.Name)
	assert.JSONEq(t, `{"_id":"p1","likes_count":3}`, ev.Data)
	ev = <-ch
	assert.Equal(t, EventPostDeleted, ev.Name)
	assert.JSONEq(t, `{"_id":"p1"}`, ev.Data)
}

func withViewer(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name != "" {
			r = r.WithContext(auth.NewContextWithClaims(r.Context(), &auth.Claims{Username: name}))
		}
		next.ServeHTTP(w, r)
	})
}

func TestHandleStream(t *testing.T) {
	hub := NewHub(8)
	srv := httptest.NewServer(withViewer("bob", hub.HandleStream(time.Hour)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(Event{Name: EventPostLikes, Data: `{"_id":"p1","likes_count":1}`})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"event: post.likes", `data: {"_id":"p1","likes_count":1}`}, lines)

	cancel()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleStreamRequiresViewer(t *testing.T) {
	hub := NewHub(1)
	rec := httptest.NewRecorder()
	withViewer("", hub.HandleStream(time.Hour)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/live", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, hub.Clients())
}
