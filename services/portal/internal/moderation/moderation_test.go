package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/example/news-portal/services/portal/internal/cascade"
	"github.com/example/news-portal/services/portal/internal/store"
)

func newFacade(m *store.Memory) *Facade {
	return New(m, cascade.New(m, m, nil), nil, nil)
}

func seed(t *testing.T, m *store.Memory, articleID, authorID string, parentID *string, text string) store.Comment {
	t.Helper()
	c, err := m.Create(context.Background(), store.NewComment{
		ArticleID: articleID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Text:      text,
	})
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}

func TestRemoveComment_ByAuthor(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	c := seed(t, m, "a", "alice", nil, "mine")
	if err := newFacade(m).RemoveComment(ctx, c.ID, "alice", false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := m.GetByID(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected comment gone, got %v", err)
	}
}

func TestRemoveComment_ByAdmin(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	c := seed(t, m, "a", "alice", nil, "flagged")
	if err := newFacade(m).RemoveComment(ctx, c.ID, "mod-1", true); err != nil {
		t.Fatalf("admin remove: %v", err)
	}
	if _, err := m.GetByID(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected comment gone, got %v", err)
	}
}

func TestRemoveComment_Forbidden(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	c := seed(t, m, "a", "alice", nil, "not yours")
	child := seed(t, m, "a", "bob", &c.ID, "reply")

	err := newFacade(m).RemoveComment(ctx, c.ID, "mallory", false)
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// The rejected request must leave everything in place.
	if _, err := m.GetByID(ctx, c.ID); err != nil {
		t.Fatalf("expected comment to survive, got %v", err)
	}
	if _, err := m.GetByID(ctx, child.ID); err != nil {
		t.Fatalf("expected reply to survive, got %v", err)
	}
}

func TestRemoveComment_NotFound(t *testing.T) {
	m := store.NewMemory()

	err := newFacade(m).RemoveComment(context.Background(), "missing", "alice", false)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveComment_CascadesReplies(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	root := seed(t, m, "a", "alice", nil, "root")
	reply := seed(t, m, "a", "bob", &root.ID, "reply")

	// The author may remove their own tree even when replies belong to
	// other users.
	if err := newFacade(m).RemoveComment(ctx, root.ID, "alice", false); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := m.GetByID(ctx, reply.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected reply gone, got %v", err)
	}
}

func TestRemoveUserContent(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	mine := seed(t, m, "a", "bob", nil, "mine")
	other := seed(t, m, "a", "carol", nil, "theirs")

	if err := newFacade(m).RemoveUserContent(ctx, "bob"); err != nil {
		t.Fatalf("purge user: %v", err)
	}
	if _, err := m.GetByID(ctx, mine.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected bob's comment gone, got %v", err)
	}
	if _, err := m.GetByID(ctx, other.ID); err != nil {
		t.Fatalf("expected carol's comment to survive, got %v", err)
	}
}

func TestRemoveArticleContent(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	doomed := seed(t, m, "a", "alice", nil, "doomed")
	kept := seed(t, m, "b", "alice", nil, "kept")
	if _, err := m.Like(ctx, "u1", store.TargetArticle, "a"); err != nil {
		t.Fatalf("seed like: %v", err)
	}

	if err := newFacade(m).RemoveArticleContent(ctx, "a"); err != nil {
		t.Fatalf("purge article: %v", err)
	}
	if _, err := m.GetByID(ctx, doomed.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected article comment gone, got %v", err)
	}
	if _, err := m.GetByID(ctx, kept.ID); err != nil {
		t.Fatalf("expected other article's comment to survive, got %v", err)
	}
	if n, _ := m.CountFor(ctx, store.TargetArticle, "a"); n != 0 {
		t.Fatal("expected article likes gone")
	}
}
