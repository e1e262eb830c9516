// This file, `dto.go`, defines the request and response payloads of the auth endpoints.
// `validate` tags are checked by apperror.ValidateStruct; `example` tags feed swag.
package auth

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum" example:"alice"`
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"strongpassword123"`
}

// LoginRequest is the body of POST /api/login. Users log in with their email.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"strongpassword123"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message" example:"Login successful"`
	User    *User  `json:"user"`
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ResetPasswordRequest asks for a password reset email.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"alice@example.com"`
}

// SetNewPasswordRequest completes a reset with the token from the email link.
type SetNewPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"newpassword123"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
