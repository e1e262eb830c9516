// This file, `service.go`, contains the account business logic: registration,
// login and the password reset flow.
package auth

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/config"
)

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, username, link string) error
}

// Service provides authentication operations.
type Service struct {
	store       UserStore
	cfg         config.AuthConfig
	frontendURL string
	mailer      ResetMailer
	now         func() time.Time
}

// NewService creates a Service. frontendURL is used to build reset links.
func NewService(store UserStore, cfg config.AuthConfig, frontendURL string, mailer ResetMailer) *Service {
	return &Service{
		store:       store,
		cfg:         cfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		mailer:      mailer,
		now:         time.Now,
	}
}

// Register creates an account and signs the user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := apperror.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user, err := s.store.CreateUser(ctx, &User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: string(hashedPassword),
	})
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth] registered user %s", user.Username)
	return &AuthResponse{Message: "User registered successfully", User: user, Token: token}, nil
}

// Login checks the email and password and returns a session token. Unknown
// emails and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := apperror.ValidateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewAuthError("invalid credentials", nil)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Message: "Login successful", User: user, Token: token}, nil
}

// IssueToken signs an access token for user.
func (s *Service) IssueToken(user *User) (string, error) {
	token, err := signToken(s.cfg.JWTSecret, user, tokenTypeAccess, s.cfg.TokenDuration, s.now())
	if err != nil {
		return "", apperror.NewInternalError("failed to generate token", err)
	}
	return token, nil
}

// RequestPasswordReset emails a short-lived reset link to the account owner.
func (s *Service) RequestPasswordReset(ctx context.Context, req ResetPasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := apperror.ValidateStruct(req); err != nil {
		return err
	}
	user, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	token, err := signToken(s.cfg.JWTSecret, user, tokenTypeReset, s.cfg.ResetTokenDuration, s.now())
	if err != nil {
		return apperror.NewInternalError("failed to generate reset token", err)
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, url.QueryEscape(token))

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, link); err != nil {
		return apperror.NewExternalServiceError("failed to send password reset email", err)
	}
	log.Printf("[auth] password reset link sent to user %s", user.Username)
	return nil
}

// SetNewPassword verifies a reset token and stores the new password.
func (s *Service) SetNewPassword(ctx context.Context, req SetNewPasswordRequest) error {
	if err := apperror.ValidateStruct(req); err != nil {
		return err
	}
	claims, err := parseToken(s.cfg.JWTSecret, req.Token, tokenTypeReset)
	if err != nil {
		return apperror.NewAuthError("invalid or expired reset token", err)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("failed to hash password", err)
	}
	if err := s.store.SetPassword(ctx, claims.UserID, string(hashedPassword)); err != nil {
		return err
	}
	return nil
}
