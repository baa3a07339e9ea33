package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Text length cap for comment bodies, in bytes.
const MaxTextLen = 10000

// Default and maximum page sizes for root-comment listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Comment is a single comment row. ParentID is nil for root comments.
type Comment struct {
	ID        string     `json:"id"`
	ArticleID string     `json:"article_id"`
	AuthorID  string     `json:"author_id"`
	ParentID  *string    `json:"parent_id,omitempty"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsRoot reports whether the comment sits directly on its article.
func (c Comment) IsRoot() bool { return c.ParentID == nil }

// NewComment carries the caller-supplied fields for Create. The store
// assigns ID and CreatedAt.
type NewComment struct {
	ArticleID string
	AuthorID  string
	ParentID  *string
	Text      string
}

// CommentStore owns comment rows. Single-row operations only; tree
// traversal and cascade logic live above it.
//
// Create validates that the text is non-empty after trimming and, when a
// parent is given, that the parent exists (ErrNotFound) and belongs to the
// same article (ErrInvalidInput).
//
// ChildrenOf returns direct replies oldest-first. RootsOf returns one page
// of root comments newest-first. The asymmetry is deliberate: new
// discussions surface first, a conversation reads in the order it happened.
//
// UpdateText requires the actor to be the author unless isAdmin is set;
// the store trusts the flag, it knows nothing about roles.
//
// DeleteOne removes exactly one row with no regard for children or likes.
// It exists for the cascade layer, which resolves the full set first;
// calling it on a comment with replies orphans them.
type CommentStore interface {
	Create(ctx context.Context, nc NewComment) (Comment, error)
	GetByID(ctx context.Context, id string) (Comment, error)
	ChildrenOf(ctx context.Context, id string) ([]Comment, error)
	RootsOf(ctx context.Context, articleID string, page, pageSize int) ([]Comment, error)
	CountRoots(ctx context.Context, articleID string) (int, error)
	UpdateText(ctx context.Context, id, text, actorID string, isAdmin bool) (Comment, error)
	ByAuthor(ctx context.Context, authorID string) ([]Comment, error)
	ForArticle(ctx context.Context, articleID string) ([]Comment, error)
	DeleteOne(ctx context.Context, id string) error
}

// validText trims and bounds-checks a comment body. Both backends share it
// so the validation rules cannot drift.
func validText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", fmt.Errorf("%w: text must not be empty", ErrInvalidInput)
	}
	if len(t) > MaxTextLen {
		return "", fmt.Errorf("%w: text exceeds %d bytes", ErrInvalidInput, MaxTextLen)
	}
	return t, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
