package store

import "context"

// Purge is one cascade deletion plan. CommentIDs must be ordered children
// before parents; the backend deletes in that order so a self-referencing
// foreign key is never violated mid-cascade. ArticleIDs lists article
// targets whose own likes are removed in the same unit (set when the
// article itself is being deleted).
type Purge struct {
	CommentIDs []string
	ArticleIDs []string
}

// Purger applies a cascade plan atomically: every like on the listed
// comment and article targets first, then the comments themselves. Either
// the whole plan lands or none of it does — a like must never outlive its
// target and a deleted comment must never leave surviving replies behind.
type Purger interface {
	ApplyPurge(ctx context.Context, p Purge) error
}
