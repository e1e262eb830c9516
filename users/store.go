package users

import (
	"context"
	"errors"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/posts"
)

// Store persists profiles and the follow graph.
type Store interface {
	GetUser(ctx context.Context, username string) (*auth.User, error)
	UpdateEmail(ctx context.Context, username, email string) (*auth.User, error)
	UpdateProfilePicture(ctx context.Context, username, url string) (*auth.User, error)
	// ToggleFollow flips follower -> target in one transaction, updating
	// follower.following and target.followers together. It returns the updated
	// follower and whether the follow is now active.
	ToggleFollow(ctx context.Context, follower, target string) (*auth.User, bool, error)
	ProfilePictures(ctx context.Context, usernames []string) (map[string]string, error)
	CountUsers(ctx context.Context) (int64, error)
}

// PGStore is the PostgreSQL Store. It also answers username searches and
// follower email lookups for the posts and notify packages.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

var (
	_ Store              = (*PGStore)(nil)
	_ posts.UserSearcher = (*PGStore)(nil)
)

func (s *PGStore) GetUser(ctx context.Context, username string) (*auth.User, error) {
	user, err := auth.ScanUser(s.db.QueryRow(ctx, `SELECT `+auth.UserColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}
	return user, nil
}

func (s *PGStore) UpdateEmail(ctx context.Context, username, email string) (*auth.User, error) {
	user, err := auth.ScanUser(s.db.QueryRow(ctx,
		`UPDATE users SET email = $2 WHERE username = $1 RETURNING `+auth.UserColumns, username, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		if conflict := auth.UniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, apperror.NewDatabaseError("failed to update email", err)
	}
	return user, nil
}

func (s *PGStore) UpdateProfilePicture(ctx context.Context, username, url string) (*auth.User, error) {
	user, err := auth.ScanUser(s.db.QueryRow(ctx,
		`UPDATE users SET profile_picture = $2 WHERE username = $1 RETURNING `+auth.UserColumns, username, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update profile picture", err)
	}
	return user, nil
}

func (s *PGStore) ToggleFollow(ctx context.Context, follower, target string) (updated *auth.User, active bool, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else if cerr := tx.Commit(ctx); cerr != nil {
			updated, active, err = nil, false, apperror.NewDatabaseError("failed to commit follow", cerr)
		}
	}()

	// Lock both rows in id order so concurrent follows between the same pair
	// cannot deadlock.
	rows, err := tx.Query(ctx,
		`SELECT username, following FROM users WHERE username = ANY($1::text[]) ORDER BY id FOR UPDATE`,
		[]string{follower, target})
	if err != nil {
		return nil, false, apperror.NewDatabaseError("failed to lock users", err)
	}
	following := map[string][]string{}
	for rows.Next() {
		var (
			name string
			list []string
		)
		if err = rows.Scan(&name, &list); err != nil {
			rows.Close()
			return nil, false, apperror.NewDatabaseError("failed to scan user", err)
		}
		following[name] = list
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, false, apperror.NewDatabaseError("failed to lock users", err)
	}
	current, ok := following[follower]
	if _, targetOK := following[target]; !ok || !targetOK {
		return nil, false, apperror.NewNotFoundError("user not found", nil)
	}

	active = !slices.Contains(current, target)
	followingSet := `following = array_remove(following, $2)`
	followersSet := `followers = array_remove(followers, $2)`
	if active {
		followingSet = `following = array_append(array_remove(following, $2), $2)`
		followersSet = `followers = array_append(array_remove(followers, $2), $2)`
	}
	if _, err = tx.Exec(ctx, `UPDATE users SET `+followersSet+` WHERE username = $1`, target, follower); err != nil {
		return nil, false, apperror.NewDatabaseError("failed to update followers", err)
	}
	updated, err = auth.ScanUser(tx.QueryRow(ctx,
		`UPDATE users SET `+followingSet+` WHERE username = $1 RETURNING `+auth.UserColumns, follower, target))
	if err != nil {
		return nil, false, apperror.NewDatabaseError("failed to update following", err)
	}
	return updated, active, nil
}

// ProfilePictures returns the avatar of every existing user in usernames.
func (s *PGStore) ProfilePictures(ctx context.Context, usernames []string) (map[string]string, error) {
	out := make(map[string]string, len(usernames))
	if len(usernames) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT username, profile_picture FROM users WHERE username = ANY($1::text[])`, usernames)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load profile pictures", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, pic string
		if err := rows.Scan(&name, &pic); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan profile picture", err)
		}
		out[name] = pic
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to load profile pictures", err)
	}
	return out, nil
}

// SearchUsernames matches a case-insensitive substring of usernames.
func (s *PGStore) SearchUsernames(ctx context.Context, substr string, skip, limit int) ([]posts.UserCard, error) {
	rows, err := s.db.Query(ctx, `
		SELECT username, profile_picture FROM users
		WHERE username ILIKE $1 ESCAPE '\'
		ORDER BY username
		LIMIT $2 OFFSET $3`, "%"+posts.EscapeLike(substr)+"%", limit, skip)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to search users", err)
	}
	defer rows.Close()
	cards := []posts.UserCard{}
	for rows.Next() {
		var c posts.UserCard
		if err := rows.Scan(&c.Username, &c.ProfilePicture); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan user", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to search users", err)
	}
	return cards, nil
}

// FollowerEmails returns the email of every follower of username.
func (s *PGStore) FollowerEmails(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.email
		FROM users a
		JOIN users f ON f.username = ANY(a.followers)
		WHERE a.username = $1
		ORDER BY f.username`, username)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load follower emails", err)
	}
	defer rows.Close()
	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan follower email", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to load follower emails", err)
	}
	return emails, nil
}

func (s *PGStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, apperror.NewDatabaseError("failed to count users", err)
	}
	return n, nil
}
