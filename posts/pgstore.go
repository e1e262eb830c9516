package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/bloghub-go/apperror"
)

// PGStore is the PostgreSQL implementation of Store.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a PGStore on top of an existing pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

const postColumns = `id::text, title, category, content, tags, visibility, username,
	likes, likes_count, saves, created_at`

// listColumns is postColumns with content blanked out.
const listColumns = `id::text, title, category, ''::text, tags, visibility, username,
	likes, likes_count, saves, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var (
		p          Post
		category   string
		visibility string
	)
	err := row.Scan(&p.ID, &p.Title, &category, &p.Content, &p.Tags, &visibility, &p.Username,
		&p.Likes, &p.LikesCount, &p.Saves, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Category = Category(category)
	p.Visibility = Visibility(visibility)
	return &p, nil
}

func (s *PGStore) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (title, category, content, tags, visibility, username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns,
		p.Title, string(p.Category), p.Content, p.Tags, string(p.Visibility), p.Username, p.CreatedAt)
	created, err := scanPost(row)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create post", err)
	}
	return created, nil
}

func (s *PGStore) GetPost(ctx context.Context, id string) (*Post, error) {
	post, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("post not found", err)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load post", err)
	}
	return post, nil
}

func (s *PGStore) UpdatePost(ctx context.Context, id, author string, upd PostUpdate) (*Post, error) {
	post, err := scanPost(s.db.QueryRow(ctx, `
		UPDATE posts SET title = $3, category = $4, content = $5, visibility = $6
		WHERE id = $1::uuid AND username = $2
		RETURNING `+postColumns,
		id, author, upd.Title, string(upd.Category), upd.Content, string(upd.Visibility)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.ownershipError(ctx, id)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update post", err)
	}
	return post, nil
}

// ownershipError explains why a write filtered by (id, author) matched nothing.
func (s *PGStore) ownershipError(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1::uuid)`, id).Scan(&exists); err != nil {
		return apperror.NewDatabaseError("failed to check post", err)
	}
	if !exists {
		return apperror.NewNotFoundError("post not found", nil)
	}
	return apperror.NewUnauthorizedError("only the author can modify this post", nil)
}

func (s *PGStore) DeletePost(ctx context.Context, id, author string) (deleted *Post, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else if cerr := tx.Commit(ctx); cerr != nil {
			deleted, err = nil, apperror.NewDatabaseError("failed to commit post deletion", cerr)
		}
	}()

	post, err := scanPost(tx.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1::uuid FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("post not found", err)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load post", err)
	}
	if post.Username != author {
		return nil, apperror.NewUnauthorizedError("only the author can delete this post", nil)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM posts WHERE id = $1::uuid`, id); err != nil {
		return nil, apperror.NewDatabaseError("failed to delete post", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE users
		SET liked_posts = array_remove(liked_posts, $1), saved_posts = array_remove(saved_posts, $1)
		WHERE $1 = ANY(liked_posts) OR $1 = ANY(saved_posts)`, post.ID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to unlink deleted post from users", err)
	}
	return post, nil
}

// buildWhere renders the predicate of q. Placeholders start at $1.
func buildWhere(q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds = append(conds, fmt.Sprintf("(visibility = 'public' OR username = %s)", arg(q.Viewer)))
	if q.ByAuthors {
		conds = append(conds, fmt.Sprintf("username = ANY(%s::text[])", arg(nonNil(q.Authors))))
	}
	if q.ByIDs {
		conds = append(conds, fmt.Sprintf("id = ANY(%s::text[]::uuid[])", arg(nonNil(q.IDs))))
	}
	if q.Category != "" {
		conds = append(conds, "category = "+arg(string(q.Category)))
	}
	if q.Popular {
		conds = append(conds, "likes_count > 0")
	}
	if q.TitleContains != "" {
		conds = append(conds, fmt.Sprintf(`title ILIKE %s ESCAPE '\'`, arg("%"+EscapeLike(q.TitleContains)+"%")))
	}
	if q.Tag != "" {
		conds = append(conds, fmt.Sprintf("tags @> ARRAY[%s::text]", arg(q.Tag)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(sort SortOrder) string {
	if sort == SortPopular {
		return " ORDER BY likes_count DESC, created_at DESC, id DESC"
	}
	return " ORDER BY created_at DESC, id DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE metacharacters of a user supplied value for use
// with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (s *PGStore) FindPosts(ctx context.Context, q Query) ([]Post, error) {
	cols := listColumns
	if q.WithContent {
		cols = postColumns
	}
	where, args := buildWhere(q)
	sql := "SELECT " + cols + " FROM posts" + where + orderBy(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query posts", err)
	}
	defer rows.Close()

	list := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan post", err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate posts", err)
	}
	return list, nil
}

func (s *PGStore) CountPosts(ctx context.Context, q Query) (int64, error) {
	where, args := buildWhere(q)
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM posts"+where, args...).Scan(&n); err != nil {
		return 0, apperror.NewDatabaseError("failed to count posts", err)
	}
	return n, nil
}

// refColumn is the users column mirroring the post set of kind.
func refColumn(kind ToggleKind) string {
	if kind == ToggleSave {
		return "saved_posts"
	}
	return "liked_posts"
}

// memberColumn is the posts column holding the user set of kind.
func memberColumn(kind ToggleKind) string {
	if kind == ToggleSave {
		return "saves"
	}
	return "likes"
}

func (s *PGStore) UserPostIDs(ctx context.Context, username string, kind ToggleKind) ([]string, error) {
	var ids []string
	err := s.db.QueryRow(ctx, `SELECT `+refColumn(kind)+` FROM users WHERE username = $1`, username).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("user not found", err)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to load %s", refColumn(kind)), err)
	}
	return ids, nil
}

func (s *PGStore) UserFollowing(ctx context.Context, username string) ([]string, error) {
	var following []string
	err := s.db.QueryRow(ctx, `SELECT following FROM users WHERE username = $1`, username).Scan(&following)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("user not found", err)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load following", err)
	}
	return following, nil
}

func (s *PGStore) AuthorStats(ctx context.Context, author, viewer string) (*AuthorStats, error) {
	var st AuthorStats
	err := s.db.QueryRow(ctx, `
		SELECT count(*), coalesce(sum(likes_count), 0)
		FROM posts
		WHERE username = $1 AND (visibility = 'public' OR username = $2)`,
		author, viewer).Scan(&st.TotalPosts, &st.TotalLikes)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to compute author stats", err)
	}
	return &st, nil
}

func (s *PGStore) SiteStats(ctx context.Context) (*SiteStats, error) {
	var st SiteStats
	err := s.db.QueryRow(ctx, `
		SELECT count(DISTINCT username), count(*), coalesce(sum(likes_count), 0)
		FROM posts`).Scan(&st.TotalWriters, &st.TotalBlogs, &st.TotalLikes)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to compute site stats", err)
	}
	return &st, nil
}

func (s *PGStore) InToggleTx(ctx context.Context, fn func(tx ToggleTx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else if cerr := tx.Commit(ctx); cerr != nil {
			err = apperror.NewDatabaseError("failed to commit toggle", cerr)
		}
	}()
	return fn(pgToggleTx{tx: tx})
}

type pgToggleTx struct {
	tx pgx.Tx
}

func (t pgToggleTx) LockPost(ctx context.Context, id string) (*Post, error) {
	post, err := scanPost(t.tx.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1::uuid FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFoundError("post not found", err)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to lock post", err)
	}
	return post, nil
}

func (t pgToggleTx) SetPostMember(ctx context.Context, id string, kind ToggleKind, username string, add bool) (*Post, error) {
	col := memberColumn(kind)
	var set, guard string
	if add {
		set = fmt.Sprintf("%[1]s = array_append(%[1]s, $2)", col)
		guard = fmt.Sprintf("NOT ($2 = ANY(%s))", col)
	} else {
		set = fmt.Sprintf("%[1]s = array_remove(%[1]s, $2)", col)
		guard = fmt.Sprintf("$2 = ANY(%s)", col)
	}
	if kind == ToggleLike {
		if add {
			set += ", likes_count = likes_count + 1"
		} else {
			set += ", likes_count = likes_count - 1"
		}
	}

	post, err := scanPost(t.tx.QueryRow(ctx,
		`UPDATE posts SET `+set+` WHERE id = $1::uuid AND `+guard+` RETURNING `+postColumns, id, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewConflictError(fmt.Sprintf("%s membership changed concurrently", kind), err)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("failed to update post %s", col), err)
	}
	return post, nil
}

func (t pgToggleTx) SetUserRef(ctx context.Context, username string, kind ToggleKind, id string, add bool) (bool, error) {
	col := refColumn(kind)
	set := fmt.Sprintf("%[1]s = array_remove(%[1]s, $2)", col)
	if add {
		set = fmt.Sprintf("%[1]s = array_append(array_remove(%[1]s, $2), $2)", col)
	}
	tag, err := t.tx.Exec(ctx, `UPDATE users SET `+set+` WHERE username = $1`, username, id)
	if err != nil {
		return false, apperror.NewDatabaseError(fmt.Sprintf("failed to update user %s", col), err)
	}
	return tag.RowsAffected() > 0, nil
}
