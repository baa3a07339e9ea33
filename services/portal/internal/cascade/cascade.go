// Package cascade removes comment trees together with everything that
// depends on them: descendant comments and every like on any of them.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/example/news-portal/services/portal/internal/store"
)

// Deleter computes the transitive set of comments to remove and hands the
// purger one atomic plan. It holds no state of its own; every run reads a
// fresh snapshot from the store.
type Deleter struct {
	comments store.CommentStore
	purger   store.Purger
	log      *zap.Logger
}

func New(comments store.CommentStore, purger store.Purger, log *zap.Logger) *Deleter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deleter{comments: comments, purger: purger, log: log}
}

// DeleteCommentTree removes rootID and its full descendant tree with all
// their likes. ErrNotFound if the root does not exist; any failure after
// that surfaces as ErrCascadeFailed with nothing applied.
func (d *Deleter) DeleteCommentTree(ctx context.Context, rootID string) error {
	if _, err := d.comments.GetByID(ctx, rootID); err != nil {
		return err
	}

	order, err := d.collectTrees(ctx, []string{rootID})
	if err != nil {
		return cascadeErr("collect tree", err)
	}
	if err := d.purger.ApplyPurge(ctx, store.Purge{CommentIDs: order}); err != nil {
		return cascadeErr("purge tree", err)
	}
	d.log.Info("comment tree deleted",
		zap.String("root_id", rootID), zap.Int("comments", len(order)))
	return nil
}

// DeleteAllCommentsByUser removes every comment authored by userID plus
// each one's full descendant tree. Comments by other users survive unless
// they sit underneath one of the removed comments; foreign ancestors are
// never touched.
func (d *Deleter) DeleteAllCommentsByUser(ctx context.Context, userID string) error {
	authored, err := d.comments.ByAuthor(ctx, userID)
	if err != nil {
		return cascadeErr("load authored comments", err)
	}
	if len(authored) == 0 {
		return nil
	}

	seeds := make([]string, len(authored))
	for i, c := range authored {
		seeds[i] = c.ID
	}
	order, err := d.collectTrees(ctx, seeds)
	if err != nil {
		return cascadeErr("collect authored trees", err)
	}
	if err := d.purger.ApplyPurge(ctx, store.Purge{CommentIDs: order}); err != nil {
		return cascadeErr("purge authored trees", err)
	}
	d.log.Info("user comments deleted",
		zap.String("user_id", userID), zap.Int("comments", len(order)))
	return nil
}

// DeleteAllCommentsForArticle removes every comment on the article, every
// like on any of them, and the article's own likes. Meant for the moment
// the article itself is deleted.
func (d *Deleter) DeleteAllCommentsForArticle(ctx context.Context, articleID string) error {
	all, err := d.comments.ForArticle(ctx, articleID)
	if err != nil {
		return cascadeErr("load article comments", err)
	}

	set := make(map[string]bool, len(all))
	parentOf := make(map[string]string, len(all))
	for _, c := range all {
		set[c.ID] = true
		if c.ParentID != nil {
			parentOf[c.ID] = *c.ParentID
		}
	}
	order := leafFirst(set, parentOf)

	err = d.purger.ApplyPurge(ctx, store.Purge{
		CommentIDs: order,
		ArticleIDs: []string{articleID},
	})
	if err != nil {
		return cascadeErr("purge article", err)
	}
	d.log.Info("article comments deleted",
		zap.String("article_id", articleID), zap.Int("comments", len(order)))
	return nil
}

// collectTrees walks the descendant closure of the seeds over ChildrenOf,
// breadth-first with a visited set so it terminates and never collects a
// comment twice, even when one seed sits inside another seed's subtree.
// The result is ordered children before parents, ready for the purger.
func (d *Deleter) collectTrees(ctx context.Context, seeds []string) ([]string, error) {
	visited := make(map[string]bool)
	parentOf := make(map[string]string)

	var queue []string
	for _, s := range seeds {
		if !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := d.comments.ChildrenOf(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			// A child's parent is unique, so this edge is recorded even
			// when the child was already reached as a seed.
			parentOf[c.ID] = id
			if !visited[c.ID] {
				visited[c.ID] = true
				queue = append(queue, c.ID)
			}
		}
	}
	return leafFirst(visited, parentOf), nil
}

// leafFirst orders the set reverse-topologically: a comment appears before
// its parent whenever both are in the set. A plain reversed BFS is not
// enough here because the user cascade seeds multiple trees that may
// contain one another, so the order is built by peeling leaves instead.
func leafFirst(set map[string]bool, parentOf map[string]string) []string {
	remaining := make(map[string]int, len(set)) // in-set children not yet ordered
	for id := range set {
		remaining[id] = 0
	}
	for child, parent := range parentOf {
		if set[child] && set[parent] {
			remaining[parent]++
		}
	}

	var queue []string
	for id, n := range remaining {
		if n == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue) // deterministic order for equal peels

	order := make([]string, 0, len(set))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		if p, ok := parentOf[id]; ok && set[p] {
			remaining[p]--
			if remaining[p] == 0 {
				queue = append(queue, p)
			}
		}
	}
	return order
}

func cascadeErr(stage string, err error) error {
	if errors.Is(err, store.ErrCascadeFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", store.ErrCascadeFailed, stage, err)
}
