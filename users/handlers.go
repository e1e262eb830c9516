// This file, `handlers.go`, exposes the profile service over HTTP.
package users

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
)

// Handlers provides HTTP handlers for profile management.
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterPublicRoutes mounts the routes that need no token.
func (h *Handlers) RegisterPublicRoutes(r chi.Router) {
	r.Get("/stats", h.HandleSiteStats())
}

// RegisterRoutes mounts the authenticated profile routes. The router must
// already run auth.JWTMiddleware.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/profile/{username}", h.HandleGetProfile())
	r.Patch("/profile/update/{username}", h.HandleUpdateProfile())
	r.Get("/users", h.HandleRelations())
	r.Get("/user/pic", h.HandleProfilePicture())
}

// HandleSiteStats godoc
// @Summary Site statistics
// @Description Counts users, writers, posts and likes.
// @Tags Users
// @Produce json
// @Success 200 {object} users.SiteStatsResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /stats [get]
func (h *Handlers) HandleSiteStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.service.SiteStats(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, stats)
	}
}

// HandleGetProfile godoc
// @Summary Get a user's profile
// @Description Returns the user, their post totals and their posts visible to the viewer.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} users.ProfileResponse
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - User not found"
// @Router /profile/{username} [get]
func (h *Handlers) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		profile, err := h.service.Profile(r.Context(), viewer, chi.URLParam(r, "username"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleUpdateProfile godoc
// @Summary Update own profile or toggle a follow
// @Description Updates email and profile picture, or follows/unfollows the user named in "following".
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (must be the viewer)"
// @Param body body users.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse "Forbidden - Not your profile"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - Email already taken"
// @Router /profile/update/{username} [patch]
func (h *Handlers) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		user, err := h.service.UpdateProfile(r.Context(), viewer, chi.URLParam(r, "username"), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, UserResponse{Message: "Profile updated successfully!", User: user})
	}
}

// HandleRelations godoc
// @Summary List following or followers
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param category query string true "following or followers"
// @Success 200 {array} posts.UserCard
// @Failure 400 {object} apperror.ErrorResponse
// @Router /users [get]
func (h *Handlers) HandleRelations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		kind, err := ParseRelationKind(r.URL.Query().Get("category"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		cards, err := h.service.Relations(r.Context(), viewer, kind)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, cards)
	}
}

// HandleProfilePicture godoc
// @Summary Viewer's profile picture
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.PictureResponse
// @Router /user/pic [get]
func (h *Handlers) HandleProfilePicture() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		pic, err := h.service.ProfilePicture(r.Context(), viewer)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, PictureResponse{ProfilePicture: pic})
	}
}
