package store

import (
	"context"
	"time"
)

// TargetType names the kind of entity a like points at.
type TargetType string

const (
	TargetArticle TargetType = "article"
	TargetComment TargetType = "comment"
)

// Like is one row of the like ledger. The pair (UserID, TargetType,
// TargetID) is unique: a user likes a given target at most once.
type Like struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// LikeLedger owns like rows for articles and comments.
//
// Like is idempotent: a duplicate call returns the existing row unchanged.
// The Postgres backend enforces this with a unique index and insert-or-
// ignore, so concurrent duplicates cannot both land. Unlike is likewise
// idempotent; removing an absent like is a no-op.
//
// DeleteAllFor and DeleteAllForTargets exist for the cascade layer, which
// must strip every like off a target set before the targets go away.
type LikeLedger interface {
	Like(ctx context.Context, userID string, tt TargetType, targetID string) (Like, error)
	Unlike(ctx context.Context, userID string, tt TargetType, targetID string) error
	CountFor(ctx context.Context, tt TargetType, targetID string) (int, error)
	HasLiked(ctx context.Context, userID string, tt TargetType, targetID string) (bool, error)
	DeleteAllFor(ctx context.Context, tt TargetType, targetID string) error
	DeleteAllForTargets(ctx context.Context, tt TargetType, targetIDs []string) error
}
