package posts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
)

// Default page sizes per feed tab.
const (
	defaultFamousLimit  = 2
	defaultLikedLimit   = 2
	defaultSavedLimit   = 2
	defaultUpdatesLimit = 3
	defaultUserLimit    = 3
)

// Handlers exposes Service over HTTP.
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the post and search routes. The router must already run
// auth.JWTMiddleware.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/posts/famous/{category}", h.HandleFeed(FeedFamous, defaultFamousLimit))
	r.Get("/posts/liked/{category}", h.HandleFeed(FeedLiked, defaultLikedLimit))
	r.Get("/posts/saved/{category}", h.HandleFeed(FeedSaved, defaultSavedLimit))
	r.Get("/posts/updates/{category}", h.HandleFeed(FeedFollowing, defaultUpdatesLimit))
	r.Get("/posts/user/{category}", h.HandleFeed(FeedAuthor, defaultUserLimit))
	r.Post("/posts/add", h.HandleCreatePost())
	r.Patch("/posts/update/{postId}", h.HandleUpdatePost())
	r.Delete("/posts/delete/{postId}", h.HandleDeletePost())
	r.Get("/posts/{postId}", h.HandleGetPost())
	r.Get("/search", h.HandleSearch())
}

// PostResponse wraps a single post.
type PostResponse struct {
	Message string `json:"message,omitempty"`
	Post    *Post  `json:"post"`
}

// UpdateRequest is the body of PATCH /posts/update/{postId}. Payload is a
// PostUpdate for action "post" and a TogglePayload for "likes" and "saves".
type UpdateRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// TogglePayload names the user performing a like or save.
type TogglePayload struct {
	Username string `json:"username"`
}

// HandleFeed godoc
// @Summary Feed page
// @Description Returns one page of the famous, liked, saved, updates or user feed. "All" disables the category filter.
// @Tags Posts
// @Produce json
// @Param category path string true "Category or All"
// @Param user query string false "Author (user feed only, defaults to the viewer)"
// @Param skip query int false "Posts to skip"
// @Param limit query int false "Page size"
// @Success 200 {object} posts.FeedPage
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /posts/{tab}/{category} [get]
func (h *Handlers) HandleFeed(kind FeedKind, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit", defaultLimit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		req := FeedRequest{
			Kind:     kind,
			Viewer:   viewer,
			Category: chi.URLParam(r, "category"),
			Skip:     skip,
			Limit:    limit,
		}
		if kind == FeedAuthor {
			req.Author = r.URL.Query().Get("user")
			if req.Author == "" {
				req.Author = viewer
			}
		}

		page, err := h.service.ComposeFeed(r.Context(), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, page)
	}
}

// HandleGetPost godoc
// @Summary Get post
// @Description Returns a post with its content and the author's avatar.
// @Tags Posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} posts.PostResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /posts/{postId} [get]
func (h *Handlers) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := auth.ViewerFromContext(r.Context())
		post, err := h.service.GetPost(r.Context(), viewer, chi.URLParam(r, "postId"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, PostResponse{Post: post})
	}
}

// HandleCreatePost godoc
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Param body body posts.CreatePostRequest true "New post"
// @Success 201 {object} posts.PostResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /posts/add [post]
func (h *Handlers) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		post, err := h.service.CreatePost(r.Context(), viewer, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, PostResponse{Message: "Post created successfully", Post: post})
	}
}

// HandleUpdatePost godoc
// @Summary Edit, like or save a post
// @Description action "post" edits the viewer's own post; "likes" and "saves" toggle the viewer's like or save.
// @Tags Posts
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Param body body posts.UpdateRequest true "Action and payload"
// @Success 200 {object} posts.PostResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /posts/update/{postId} [patch]
func (h *Handlers) HandleUpdatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		postID := chi.URLParam(r, "postId")

		var (
			post *Post
			err  error
		)
		switch req.Action {
		case "post":
			var upd PostUpdate
			if err := decodePayload(req.Payload, &upd); err != nil {
				auth.WriteError(w, r, err)
				return
			}
			post, err = h.service.UpdatePost(r.Context(), viewer, postID, upd)
		case "likes", "saves":
			kind := ToggleLike
			if req.Action == "saves" {
				kind = ToggleSave
			}
			var p TogglePayload
			if err := decodePayload(req.Payload, &p); err != nil {
				auth.WriteError(w, r, err)
				return
			}
			if p.Username != "" && p.Username != viewer {
				auth.WriteError(w, r, apperror.NewUnauthorizedError("cannot act on behalf of another user", nil))
				return
			}
			post, err = h.service.Toggle(r.Context(), postID, viewer, kind)
		default:
			err = apperror.NewValidationError(fmt.Sprintf("invalid action type %q", req.Action), nil)
		}
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, PostResponse{Message: "Post and user updated successfully", Post: post})
	}
}

// HandleDeletePost godoc
// @Summary Delete post
// @Tags Posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} posts.PostResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /posts/delete/{postId} [delete]
func (h *Handlers) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		post, err := h.service.DeletePost(r.Context(), viewer, chi.URLParam(r, "postId"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, PostResponse{Message: "Post deleted successfully", Post: post})
	}
}

// HandleSearch godoc
// @Summary Search
// @Description category "username" returns users; "title" and "tag" return posts.
// @Tags Search
// @Produce json
// @Param category query string true "username, title or tag"
// @Param value query string true "Search value"
// @Param skip query int false "Results to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} posts.Post
// @Failure 400 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /search [get]
func (h *Handlers) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := auth.ViewerFromContext(r.Context())
		kind, err := ParseSearchKind(r.URL.Query().Get("category"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit", DefaultSearchLimit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		res, err := h.service.Search(r.Context(), SearchRequest{
			Kind:   kind,
			Value:  r.URL.Query().Get("value"),
			Viewer: viewer,
			Skip:   skip,
			Limit:  limit,
		})
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if res.Kind == SearchUsername {
			auth.WriteJSON(w, http.StatusOK, res.Users)
			return
		}
		auth.WriteJSON(w, http.StatusOK, res.Posts)
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewBadRequestError(fmt.Sprintf("%s must be an integer", name), err)
	}
	return n, nil
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return apperror.NewValidationError("payload is required", nil)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.NewBadRequestError("invalid payload", err)
	}
	return nil
}
