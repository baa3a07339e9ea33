package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a development and test backend holding comments and likes in
// maps. One instance implements CommentStore, LikeLedger and Purger so a
// purge is atomic under its single lock, matching what the Postgres
// backend gets from a transaction.
type Memory struct {
	mu       sync.RWMutex
	seq      int64
	comments map[string]Comment
	order    map[string]int64 // comment id -> insertion sequence, ordering tiebreak
	likes    map[likeKey]Like
}

type likeKey struct {
	userID   string
	tt       TargetType
	targetID string
}

func NewMemory() *Memory {
	return &Memory{
		comments: make(map[string]Comment),
		order:    make(map[string]int64),
		likes:    make(map[likeKey]Like),
	}
}

// ─── CommentStore ───────────────────────────────────────────────────────────

func (m *Memory) Create(_ context.Context, nc NewComment) (Comment, error) {
	text, err := validText(nc.Text)
	if err != nil {
		return Comment{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if nc.ParentID != nil {
		parent, ok := m.comments[*nc.ParentID]
		if !ok {
			return Comment{}, fmt.Errorf("%w: parent comment %s", ErrNotFound, *nc.ParentID)
		}
		if parent.ArticleID != nc.ArticleID {
			return Comment{}, fmt.Errorf("%w: parent belongs to article %s, not %s",
				ErrInvalidInput, parent.ArticleID, nc.ArticleID)
		}
	}

	m.seq++
	c := Comment{
		ID:        uuid.NewString(),
		ArticleID: nc.ArticleID,
		AuthorID:  nc.AuthorID,
		ParentID:  nc.ParentID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	m.comments[c.ID] = c
	m.order[c.ID] = m.seq
	return c, nil
}

func (m *Memory) GetByID(_ context.Context, id string) (Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	return c, nil
}

func (m *Memory) ChildrenOf(_ context.Context, id string) ([]Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Comment
	for _, c := range m.comments {
		if c.ParentID != nil && *c.ParentID == id {
			out = append(out, c)
		}
	}
	m.sortOldestFirst(out)
	return out, nil
}

func (m *Memory) RootsOf(_ context.Context, articleID string, page, pageSize int) ([]Comment, error) {
	page, pageSize = normalizePage(page, pageSize)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var roots []Comment
	for _, c := range m.comments {
		if c.ArticleID == articleID && c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return m.order[roots[i].ID] > m.order[roots[j].ID]
	})

	start := (page - 1) * pageSize
	if start >= len(roots) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(roots) {
		end = len(roots)
	}
	return roots[start:end], nil
}

func (m *Memory) CountRoots(_ context.Context, articleID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.comments {
		if c.ArticleID == articleID && c.ParentID == nil {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateText(_ context.Context, id, text, actorID string, isAdmin bool) (Comment, error) {
	t, err := validText(text)
	if err != nil {
		return Comment{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	if !isAdmin && c.AuthorID != actorID {
		return Comment{}, fmt.Errorf("%w: actor %s is not the author", ErrForbidden, actorID)
	}

	now := time.Now().UTC()
	c.Text = t
	c.UpdatedAt = &now
	m.comments[id] = c
	return c, nil
}

func (m *Memory) ByAuthor(_ context.Context, authorID string) ([]Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Comment
	for _, c := range m.comments {
		if c.AuthorID == authorID {
			out = append(out, c)
		}
	}
	m.sortOldestFirst(out)
	return out, nil
}

func (m *Memory) ForArticle(_ context.Context, articleID string) ([]Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Comment
	for _, c := range m.comments {
		if c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	m.sortOldestFirst(out)
	return out, nil
}

func (m *Memory) DeleteOne(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}
	delete(m.comments, id)
	delete(m.order, id)
	return nil
}

// sortOldestFirst orders by creation time with the insertion sequence as
// tiebreak, so comments created within one clock tick stay stable.
func (m *Memory) sortOldestFirst(cs []Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return m.order[cs[i].ID] < m.order[cs[j].ID]
	})
}

// ─── LikeLedger ─────────────────────────────────────────────────────────────

func (m *Memory) Like(_ context.Context, userID string, tt TargetType, targetID string) (Like, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := likeKey{userID: userID, tt: tt, targetID: targetID}
	if existing, ok := m.likes[k]; ok {
		return existing, nil
	}
	l := Like{
		ID:         uuid.NewString(),
		UserID:     userID,
		TargetType: tt,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC(),
	}
	m.likes[k] = l
	return l, nil
}

func (m *Memory) Unlike(_ context.Context, userID string, tt TargetType, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.likes, likeKey{userID: userID, tt: tt, targetID: targetID})
	return nil
}

func (m *Memory) CountFor(_ context.Context, tt TargetType, targetID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k := range m.likes {
		if k.tt == tt && k.targetID == targetID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) HasLiked(_ context.Context, userID string, tt TargetType, targetID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.likes[likeKey{userID: userID, tt: tt, targetID: targetID}]
	return ok, nil
}

func (m *Memory) DeleteAllFor(_ context.Context, tt TargetType, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteLikesLocked(tt, map[string]bool{targetID: true})
	return nil
}

func (m *Memory) DeleteAllForTargets(_ context.Context, tt TargetType, targetIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		set[id] = true
	}
	m.deleteLikesLocked(tt, set)
	return nil
}

func (m *Memory) deleteLikesLocked(tt TargetType, targetIDs map[string]bool) {
	for k := range m.likes {
		if k.tt == tt && targetIDs[k.targetID] {
			delete(m.likes, k)
		}
	}
}

// ─── Purger ─────────────────────────────────────────────────────────────────

func (m *Memory) ApplyPurge(_ context.Context, p Purge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	commentSet := make(map[string]bool, len(p.CommentIDs))
	for _, id := range p.CommentIDs {
		commentSet[id] = true
	}
	articleSet := make(map[string]bool, len(p.ArticleIDs))
	for _, id := range p.ArticleIDs {
		articleSet[id] = true
	}

	m.deleteLikesLocked(TargetComment, commentSet)
	m.deleteLikesLocked(TargetArticle, articleSet)
	for _, id := range p.CommentIDs {
		delete(m.comments, id)
		delete(m.order, id)
	}
	return nil
}
