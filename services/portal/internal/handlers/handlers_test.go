package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/news-portal/internal/platform/auth"
	"github.com/example/news-portal/services/portal/internal/cascade"
	"github.com/example/news-portal/services/portal/internal/moderation"
	"github.com/example/news-portal/services/portal/internal/store"
	"github.com/example/news-portal/services/portal/internal/thread"
)

// testRouter wires the handlers the way cmd/portal does, minus the JWT
// middleware. Tests inject the actor directly into the request context.
func testRouter(m *store.Memory) chi.Router {
	asm := thread.New(m, m)
	mod := moderation.New(m, cascade.New(m, m, nil), nil, nil)

	r := chi.NewRouter()
	r.Get("/v1/articles/{article_id}/comments", GetThread(asm))
	r.Post("/v1/articles/{article_id}/comments", CreateComment(m, nil))
	r.Put("/v1/comments/{comment_id}", UpdateComment(m, nil))
	r.Delete("/v1/comments/{comment_id}", DeleteComment(mod))
	r.Post("/v1/comments/{comment_id}/like", LikeComment(m, m))
	r.Delete("/v1/comments/{comment_id}/like", UnlikeComment(m))
	r.Post("/v1/articles/{article_id}/like", LikeArticle(m))
	r.Delete("/v1/articles/{article_id}/like", UnlikeArticle(m))
	r.Get("/v1/articles/{article_id}/likes", GetArticleLikes(m))
	r.Delete("/v1/admin/users/{user_id}/comments", PurgeUserComments(mod))
	r.Delete("/v1/admin/articles/{article_id}/comments", PurgeArticleComments(mod))
	return r
}

func doJSON(t *testing.T, h http.Handler, actor *auth.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateComment(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	alice := &auth.Actor{ID: "alice"}

	rec := doJSON(t, r, alice, http.MethodPost, "/v1/articles/a-1/comments",
		map[string]any{"text": "first!"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var c store.Comment
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ArticleID != "a-1" || c.AuthorID != "alice" || c.Text != "first!" {
		t.Fatalf("unexpected comment: %+v", c)
	}
}

func TestCreateComment_Unauthorized(t *testing.T) {
	r := testRouter(store.NewMemory())

	rec := doJSON(t, r, nil, http.MethodPost, "/v1/articles/a-1/comments",
		map[string]any{"text": "anon"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateComment_EmptyText(t *testing.T) {
	r := testRouter(store.NewMemory())
	alice := &auth.Actor{ID: "alice"}

	rec := doJSON(t, r, alice, http.MethodPost, "/v1/articles/a-1/comments",
		map[string]any{"text": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateComment_MissingParent(t *testing.T) {
	r := testRouter(store.NewMemory())
	alice := &auth.Actor{ID: "alice"}

	rec := doJSON(t, r, alice, http.MethodPost, "/v1/articles/a-1/comments",
		map[string]any{"text": "reply", "parent_id": "no-such-comment"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetThread(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	ctx := context.Background()

	root, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "alice", Text: "root"})
	_, _ = m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "bob", ParentID: &root.ID, Text: "reply"})
	_, _ = m.Like(ctx, "bob", store.TargetComment, root.ID)

	rec := doJSON(t, r, nil, http.MethodGet, "/v1/articles/a-1/comments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var th thread.Thread
	if err := json.Unmarshal(rec.Body.Bytes(), &th); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if th.TotalRoots != 1 || len(th.Roots) != 1 {
		t.Fatalf("unexpected thread: %+v", th)
	}
	n := th.Roots[0]
	if n.LikeCount != 1 || len(n.Children) != 1 {
		t.Fatalf("unexpected root node: %+v", n)
	}
	if n.LikedByViewer != nil {
		t.Fatal("expected no viewer annotation on anonymous request")
	}
}

func TestGetThread_ViewerAnnotation(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	ctx := context.Background()

	root, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "alice", Text: "root"})
	_, _ = m.Like(ctx, "bob", store.TargetComment, root.ID)

	rec := doJSON(t, r, &auth.Actor{ID: "bob"}, http.MethodGet, "/v1/articles/a-1/comments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var th thread.Thread
	if err := json.Unmarshal(rec.Body.Bytes(), &th); err != nil {
		t.Fatalf("decode: %v", err)
	}
	n := th.Roots[0]
	if n.LikedByViewer == nil || !*n.LikedByViewer {
		t.Fatal("expected liked_by_viewer true for bob")
	}
}

func TestUpdateComment_StatusMapping(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	ctx := context.Background()

	c, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "alice", Text: "original"})

	cases := []struct {
		name  string
		actor auth.Actor
		path  string
		text  string
		want  int
	}{
		{"author ok", auth.Actor{ID: "alice"}, "/v1/comments/" + c.ID, "edited", http.StatusOK},
		{"admin ok", auth.Actor{ID: "mod", Admin: true}, "/v1/comments/" + c.ID, "moderated", http.StatusOK},
		{"forbidden", auth.Actor{ID: "mallory"}, "/v1/comments/" + c.ID, "hacked", http.StatusForbidden},
		{"not found", auth.Actor{ID: "alice"}, "/v1/comments/missing", "x", http.StatusNotFound},
		{"empty text", auth.Actor{ID: "alice"}, "/v1/comments/" + c.ID, "  ", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := doJSON(t, r, &tc.actor, http.MethodPut, tc.path, map[string]any{"text": tc.text})
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestDeleteComment(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	ctx := context.Background()

	root, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "alice", Text: "root"})
	reply, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "bob", ParentID: &root.ID, Text: "reply"})

	rec := doJSON(t, r, &auth.Actor{ID: "mallory"}, http.MethodDelete, "/v1/comments/"+root.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}

	rec = doJSON(t, r, &auth.Actor{ID: "alice"}, http.MethodDelete, "/v1/comments/"+root.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := m.GetByID(ctx, reply.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected reply cascaded, got %v", err)
	}

	rec = doJSON(t, r, &auth.Actor{ID: "alice"}, http.MethodDelete, "/v1/comments/"+root.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestLikeComment(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	ctx := context.Background()

	c, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "alice", Text: "likeable"})
	bob := &auth.Actor{ID: "bob"}

	for i := 0; i < 2; i++ {
		rec := doJSON(t, r, bob, http.MethodPost, "/v1/comments/"+c.ID+"/like", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("like %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if n, _ := m.CountFor(ctx, store.TargetComment, c.ID); n != 1 {
		t.Fatalf("expected count 1 after double like, got %d", n)
	}

	rec := doJSON(t, r, bob, http.MethodPost, "/v1/comments/missing/like", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing comment, got %d", rec.Code)
	}

	rec = doJSON(t, r, bob, http.MethodDelete, "/v1/comments/"+c.ID+"/like", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if n, _ := m.CountFor(ctx, store.TargetComment, c.ID); n != 0 {
		t.Fatalf("expected count 0 after unlike, got %d", n)
	}
}

func TestArticleLikes(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	bob := &auth.Actor{ID: "bob"}

	rec := doJSON(t, r, bob, http.MethodPost, "/v1/articles/a-1/like", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, bob, http.MethodGet, "/v1/articles/a-1/likes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp likeCountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.LikedByViewer == nil || !*resp.LikedByViewer {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = doJSON(t, r, nil, http.MethodGet, "/v1/articles/a-1/likes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp = likeCountResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.LikedByViewer != nil {
		t.Fatalf("expected anonymous response without viewer flag: %+v", resp)
	}
}

func TestAdminPurges(t *testing.T) {
	m := store.NewMemory()
	r := testRouter(m)
	ctx := context.Background()

	bobC, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "bob", Text: "by bob"})
	aliceC, _ := m.Create(ctx, store.NewComment{ArticleID: "a-1", AuthorID: "alice", Text: "by alice"})
	otherC, _ := m.Create(ctx, store.NewComment{ArticleID: "a-2", AuthorID: "alice", Text: "elsewhere"})
	admin := &auth.Actor{ID: "mod", Admin: true}

	rec := doJSON(t, r, admin, http.MethodDelete, "/v1/admin/users/bob/comments", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("user purge: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := m.GetByID(ctx, bobC.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected bob's comment purged, got %v", err)
	}
	if _, err := m.GetByID(ctx, aliceC.ID); err != nil {
		t.Fatalf("expected alice's comment to survive, got %v", err)
	}

	rec = doJSON(t, r, admin, http.MethodDelete, "/v1/admin/articles/a-1/comments", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("article purge: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := m.GetByID(ctx, aliceC.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected a-1 comments purged, got %v", err)
	}
	if _, err := m.GetByID(ctx, otherC.ID); err != nil {
		t.Fatalf("expected a-2 comment to survive, got %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	for _, tc := range []struct {
		query string
		want  int
	}{
		{"", 7},
		{"page=3", 3},
		{"page=0", 7},
		{"page=-2", 7},
		{"page=abc", 7},
	} {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/x?%s", tc.query), nil)
		if got := queryInt(req, "page", 7); got != tc.want {
			t.Fatalf("query %q: expected %d, got %d", tc.query, tc.want, got)
		}
	}
}
