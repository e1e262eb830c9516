// This file, `store.go`, holds the account queries used by the auth service.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/bloghub-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts user and returns it with ID and CreatedAt set. A taken
	// username or email yields a ConflictError.
	CreateUser(ctx context.Context, user *User) (*User, error)
	// UserByEmail looks up a user by email, ignoring case.
	UserByEmail(ctx context.Context, email string) (*User, error)
	// SetPassword replaces the stored password hash.
	SetPassword(ctx context.Context, userID int64, hash string) error
}

// PGUserStore is the PostgreSQL UserStore.
type PGUserStore struct {
	db *pgxpool.Pool
}

func NewPGUserStore(db *pgxpool.Pool) *PGUserStore {
	return &PGUserStore{db: db}
}

// UserColumns is the column list matching ScanUser.
const UserColumns = `id, username, email, password, profile_picture, following, followers,
	liked_posts, saved_posts, created_at`

// ScanUser scans a row selected with UserColumns.
func ScanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.ProfilePicture,
		&u.Following, &u.Followers, &u.LikedPosts, &u.SavedPosts, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PGUserStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	created, err := ScanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password, profile_picture)
		VALUES ($1, $2, $3, $4)
		RETURNING `+UserColumns,
		user.Username, user.Email, user.HashedPassword, user.ProfilePicture))
	if err != nil {
		if conflict := UniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return created, nil
}

func (s *PGUserStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := ScanUser(s.db.QueryRow(ctx,
		`SELECT `+UserColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get user by email", err)
	}
	return user, nil
}

func (s *PGUserStore) SetPassword(ctx context.Context, userID int64, hash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET password = $2 WHERE id = $1`, userID, hash)
	if err != nil {
		return apperror.NewDatabaseError("failed to update password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("user not found", nil)
	}
	return nil
}

// UniqueViolation maps a users unique-index violation to a ConflictError, or
// returns nil for any other error.
func UniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return apperror.NewConflictError("username already exists", err)
	case strings.Contains(pgErr.ConstraintName, "email"):
		return apperror.NewConflictError("email already exists", err)
	}
	return apperror.NewConflictError("user already exists", err)
}
