package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, article_id, author_id, parent_id, body, created_at, updated_at`

// PostgresComments persists comments in Postgres. See schema.sql for the
// backing table.
type PostgresComments struct {
	pool *pgxpool.Pool
}

// NewPostgresComments creates a comment store backed by Postgres.
func NewPostgresComments(pool *pgxpool.Pool) *PostgresComments {
	return &PostgresComments{pool: pool}
}

func (s *PostgresComments) Create(ctx context.Context, nc NewComment) (Comment, error) {
	text, err := validText(nc.Text)
	if err != nil {
		return Comment{}, err
	}

	if nc.ParentID != nil {
		var parentArticle string
		err := s.pool.QueryRow(ctx,
			`SELECT article_id FROM comments WHERE id = $1`, *nc.ParentID).Scan(&parentArticle)
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, fmt.Errorf("%w: parent comment %s", ErrNotFound, *nc.ParentID)
		}
		if err != nil {
			return Comment{}, err
		}
		if parentArticle != nc.ArticleID {
			return Comment{}, fmt.Errorf("%w: parent belongs to article %s, not %s",
				ErrInvalidInput, parentArticle, nc.ArticleID)
		}
	}

	const q = `INSERT INTO comments (article_id, author_id, parent_id, body)
	           VALUES ($1, $2, $3, $4)
	           RETURNING ` + commentColumns
	row := s.pool.QueryRow(ctx, q, nc.ArticleID, nc.AuthorID, nc.ParentID, text)
	return scanComment(row)
}

func (s *PostgresComments) GetByID(ctx context.Context, id string) (Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	return c, err
}

func (s *PostgresComments) ChildrenOf(ctx context.Context, id string) ([]Comment, error) {
	const q = `SELECT ` + commentColumns + `
	           FROM comments
	           WHERE parent_id = $1
	           ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, id)
}

func (s *PostgresComments) RootsOf(ctx context.Context, articleID string, page, pageSize int) ([]Comment, error) {
	page, pageSize = normalizePage(page, pageSize)
	const q = `SELECT ` + commentColumns + `
	           FROM comments
	           WHERE article_id = $1 AND parent_id IS NULL
	           ORDER BY created_at DESC, id DESC
	           LIMIT $2 OFFSET $3`
	return s.queryComments(ctx, q, articleID, pageSize, (page-1)*pageSize)
}

func (s *PostgresComments) CountRoots(ctx context.Context, articleID string) (int, error) {
	const q = `SELECT COUNT(*) FROM comments WHERE article_id = $1 AND parent_id IS NULL`
	var n int
	err := s.pool.QueryRow(ctx, q, articleID).Scan(&n)
	return n, err
}

func (s *PostgresComments) UpdateText(ctx context.Context, id, text, actorID string, isAdmin bool) (Comment, error) {
	t, err := validText(text)
	if err != nil {
		return Comment{}, err
	}

	var authorID string
	err = s.pool.QueryRow(ctx, `SELECT author_id FROM comments WHERE id = $1`, id).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	if err != nil {
		return Comment{}, err
	}
	if !isAdmin && authorID != actorID {
		return Comment{}, fmt.Errorf("%w: actor %s is not the author", ErrForbidden, actorID)
	}

	const q = `UPDATE comments SET body = $2, updated_at = now()
	           WHERE id = $1
	           RETURNING ` + commentColumns
	c, err := scanComment(s.pool.QueryRow(ctx, q, id, t))
	if errors.Is(err, pgx.ErrNoRows) {
		// Deleted between the check and the update.
		return Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	return c, err
}

func (s *PostgresComments) ByAuthor(ctx context.Context, authorID string) ([]Comment, error) {
	const q = `SELECT ` + commentColumns + `
	           FROM comments
	           WHERE author_id = $1
	           ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, authorID)
}

func (s *PostgresComments) ForArticle(ctx context.Context, articleID string) ([]Comment, error) {
	const q = `SELECT ` + commentColumns + `
	           FROM comments
	           WHERE article_id = $1
	           ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, articleID)
}

func (s *PostgresComments) DeleteOne(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresComments) queryComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.ParentID,
		&c.Text, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
