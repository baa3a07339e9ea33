// Package thread assembles the reply forest of an article for display.
package thread

import (
	"context"

	"github.com/example/news-portal/services/portal/internal/store"
)

// Node is one comment with its fully expanded replies and like annotations.
// LikedByViewer is nil when no viewer was supplied.
type Node struct {
	Comment       store.Comment `json:"comment"`
	LikeCount     int           `json:"like_count"`
	LikedByViewer *bool         `json:"liked_by_viewer,omitempty"`
	Children      []*Node       `json:"children"`
}

// Thread is one page of an article's comment forest. Pagination applies to
// roots only; each returned root carries its entire descendant tree.
type Thread struct {
	Roots      []*Node `json:"roots"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalRoots int     `json:"total_roots"`
}

// Assembler builds threads from the comment store and the like ledger.
type Assembler struct {
	comments store.CommentStore
	likes    store.LikeLedger
}

func New(comments store.CommentStore, likes store.LikeLedger) *Assembler {
	return &Assembler{comments: comments, likes: likes}
}

// ArticleThread returns one page of root comments, newest first, each with
// every transitive reply attached oldest-first. viewerID may be empty.
//
// Replies are expanded with an explicit work list rather than recursion;
// thread depth is unbounded and must not be able to exhaust the stack.
func (a *Assembler) ArticleThread(ctx context.Context, articleID string, page, pageSize int, viewerID string) (Thread, error) {
	roots, err := a.comments.RootsOf(ctx, articleID, page, pageSize)
	if err != nil {
		return Thread{}, err
	}
	total, err := a.comments.CountRoots(ctx, articleID)
	if err != nil {
		return Thread{}, err
	}

	th := Thread{
		Roots:      make([]*Node, 0, len(roots)),
		Page:       page,
		PageSize:   pageSize,
		TotalRoots: total,
	}

	var work []*Node
	for _, r := range roots {
		n, err := a.newNode(ctx, r, viewerID)
		if err != nil {
			return Thread{}, err
		}
		th.Roots = append(th.Roots, n)
		work = append(work, n)
	}

	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]

		children, err := a.comments.ChildrenOf(ctx, n.Comment.ID)
		if err != nil {
			return Thread{}, err
		}
		for _, c := range children {
			child, err := a.newNode(ctx, c, viewerID)
			if err != nil {
				return Thread{}, err
			}
			n.Children = append(n.Children, child)
			work = append(work, child)
		}
	}
	return th, nil
}

func (a *Assembler) newNode(ctx context.Context, c store.Comment, viewerID string) (*Node, error) {
	n := &Node{Comment: c, Children: []*Node{}}

	count, err := a.likes.CountFor(ctx, store.TargetComment, c.ID)
	if err != nil {
		return nil, err
	}
	n.LikeCount = count

	if viewerID != "" {
		liked, err := a.likes.HasLiked(ctx, viewerID, store.TargetComment, c.ID)
		if err != nil {
			return nil, err
		}
		n.LikedByViewer = &liked
	}
	return n, nil
}
