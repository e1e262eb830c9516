// This file, `handlers.go`, exposes the auth service over HTTP and provides the
// JSON response helpers shared by every handler package.
package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/bloghub-go/apperror"
)

// Handlers wraps Service with HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the public account routes.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister())
	r.Post("/login", h.HandleLogin())
	r.Post("/reset-password", h.HandleResetPassword())
	r.Post("/set-new-password", h.HandleSetNewPassword())
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.AuthResponse "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - Username or email already taken"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}

		resp, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, resp)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in with email and password and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.AuthResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid credentials"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleResetPassword godoc
// @Summary Request Password Reset
// @Description Emails a password reset link valid for a limited time.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body auth.ResetPasswordRequest true "Account email"
// @Success 200 {object} auth.MessageResponse
// @Failure 404 {object} apperror.ErrorResponse "No account with this email"
// @Failure 502 {object} apperror.ErrorResponse "Mail transport failure"
// @Router /reset-password [post]
func (h *Handlers) HandleResetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		if err := h.service.RequestPasswordReset(r.Context(), req); err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password reset link sent to your email"})
	}
}

// HandleSetNewPassword godoc
// @Summary Set New Password
// @Description Sets a new password using the token from a reset link.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body auth.SetNewPasswordRequest true "Reset token and new password"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse "Invalid or expired token"
// @Router /set-new-password [post]
func (h *Handlers) HandleSetNewPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetNewPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		if err := h.service.SetNewPassword(r.Context(), req); err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
	}
}

// WriteJSON serializes data with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil { // Avoid writing nil, which can result in "null" response body
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[http] failed to encode response: %v", err)
		}
	}
}

// WriteError converts err into the standard {"error": "..."} response. Errors
// that are not AppErrors become 500s, and every 5xx is logged with its cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, appErr)
	}
	WriteJSON(w, status, appErr.ToResponse())
}
