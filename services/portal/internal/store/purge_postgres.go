package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPurger applies cascade plans in a single transaction.
type PostgresPurger struct {
	pool *pgxpool.Pool
}

// NewPostgresPurger creates a purger backed by Postgres.
func NewPostgresPurger(pool *pgxpool.Pool) *PostgresPurger {
	return &PostgresPurger{pool: pool}
}

// ApplyPurge deletes likes in bulk, then comments one by one in the
// caller's order (children before parents) so the self-referencing
// parent_id constraint holds at every step. Everything runs in one
// transaction; a cancelled context aborts and rolls the whole plan back.
func (s *PostgresPurger) ApplyPurge(ctx context.Context, p Purge) error {
	if len(p.CommentIDs) == 0 && len(p.ArticleIDs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrCascadeFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(p.CommentIDs) > 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM likes WHERE target_type = $1 AND target_id = ANY($2)`,
			TargetComment, p.CommentIDs)
		if err != nil {
			return fmt.Errorf("%w: delete comment likes: %w", ErrCascadeFailed, err)
		}
	}
	if len(p.ArticleIDs) > 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM likes WHERE target_type = $1 AND target_id = ANY($2)`,
			TargetArticle, p.ArticleIDs)
		if err != nil {
			return fmt.Errorf("%w: delete article likes: %w", ErrCascadeFailed, err)
		}
	}

	if len(p.CommentIDs) > 0 {
		batch := &pgx.Batch{}
		for _, id := range p.CommentIDs {
			batch.Queue(`DELETE FROM comments WHERE id = $1`, id)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%w: delete comments: %w", ErrCascadeFailed, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrCascadeFailed, err)
	}
	return nil
}
