package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const likeColumns = `id, user_id, target_type, target_id, created_at`

// PostgresLikes persists the like ledger in Postgres. The unique index on
// (user_id, target_type, target_id) backs the at-most-one-like invariant.
type PostgresLikes struct {
	pool *pgxpool.Pool
}

// NewPostgresLikes creates a like ledger backed by Postgres.
func NewPostgresLikes(pool *pgxpool.Pool) *PostgresLikes {
	return &PostgresLikes{pool: pool}
}

func (s *PostgresLikes) Like(ctx context.Context, userID string, tt TargetType, targetID string) (Like, error) {
	// Insert-or-ignore, then read back. The unique index decides races;
	// there is no lookup-then-insert window.
	const ins = `INSERT INTO likes (user_id, target_type, target_id)
	             VALUES ($1, $2, $3)
	             ON CONFLICT (user_id, target_type, target_id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, ins, userID, tt, targetID); err != nil {
		return Like{}, err
	}

	const sel = `SELECT ` + likeColumns + `
	             FROM likes
	             WHERE user_id = $1 AND target_type = $2 AND target_id = $3`
	var l Like
	err := s.pool.QueryRow(ctx, sel, userID, tt, targetID).Scan(
		&l.ID, &l.UserID, &l.TargetType, &l.TargetID, &l.CreatedAt)
	return l, err
}

func (s *PostgresLikes) Unlike(ctx context.Context, userID string, tt TargetType, targetID string) error {
	const q = `DELETE FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`
	_, err := s.pool.Exec(ctx, q, userID, tt, targetID)
	return err
}

func (s *PostgresLikes) CountFor(ctx context.Context, tt TargetType, targetID string) (int, error) {
	const q = `SELECT COUNT(*) FROM likes WHERE target_type = $1 AND target_id = $2`
	var n int
	err := s.pool.QueryRow(ctx, q, tt, targetID).Scan(&n)
	return n, err
}

func (s *PostgresLikes) HasLiked(ctx context.Context, userID string, tt TargetType, targetID string) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM likes
	             WHERE user_id = $1 AND target_type = $2 AND target_id = $3)`
	var ok bool
	err := s.pool.QueryRow(ctx, q, userID, tt, targetID).Scan(&ok)
	return ok, err
}

func (s *PostgresLikes) DeleteAllFor(ctx context.Context, tt TargetType, targetID string) error {
	const q = `DELETE FROM likes WHERE target_type = $1 AND target_id = $2`
	_, err := s.pool.Exec(ctx, q, tt, targetID)
	return err
}

func (s *PostgresLikes) DeleteAllForTargets(ctx context.Context, tt TargetType, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	const q = `DELETE FROM likes WHERE target_type = $1 AND target_id = ANY($2)`
	_, err := s.pool.Exec(ctx, q, tt, targetIDs)
	return err
}
