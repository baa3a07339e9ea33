package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/news-portal/internal/platform/api"
	"github.com/example/news-portal/internal/platform/auth"
	"github.com/example/news-portal/internal/platform/events"
	"github.com/example/news-portal/internal/platform/httpserver"
	"github.com/example/news-portal/services/portal/internal/moderation"
	"github.com/example/news-portal/services/portal/internal/store"
	"github.com/example/news-portal/services/portal/internal/thread"
)

type createCommentRequest struct {
	Text     string  `json:"text"`
	ParentID *string `json:"parent_id,omitempty"`
}

type updateCommentRequest struct {
	Text string `json:"text"`
}

// CreateComment handles POST /v1/articles/{article_id}/comments
func CreateComment(cs store.CommentStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok || actor.ID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		articleID := strings.TrimSpace(chi.URLParam(r, "article_id"))
		if articleID == "" {
			api.BadRequest(w, "MISSING_ID", "article_id is required", rid, nil)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		created, err := cs.Create(r.Context(), store.NewComment{
			ArticleID: articleID,
			AuthorID:  actor.ID,
			ParentID:  req.ParentID,
			Text:      req.Text,
		})
		if err != nil {
			writeStoreError(w, err, rid)
			return
		}

		ev.Publish(events.SubjectCommentCreated, "comment_created", actor.ID, map[string]any{
			"comment_id": created.ID,
			"article_id": created.ArticleID,
			"is_reply":   created.ParentID != nil,
		})
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetThread handles GET /v1/articles/{article_id}/comments
func GetThread(asm *thread.Assembler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		articleID := strings.TrimSpace(chi.URLParam(r, "article_id"))
		if articleID == "" {
			api.BadRequest(w, "MISSING_ID", "article_id is required", rid, nil)
			return
		}

		page := queryInt(r, "page", 1)
		pageSize := queryInt(r, "page_size", store.DefaultPageSize)

		viewerID := ""
		if actor, ok := auth.ActorFromContext(r.Context()); ok {
			viewerID = actor.ID
		}

		th, err := asm.ArticleThread(r.Context(), articleID, page, pageSize, viewerID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, th)
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(cs store.CommentStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok || actor.ID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		updated, err := cs.UpdateText(r.Context(), commentID, req.Text, actor.ID, actor.Admin)
		if err != nil {
			writeStoreError(w, err, rid)
			return
		}

		ev.Publish(events.SubjectCommentUpdated, "comment_updated", actor.ID, map[string]any{
			"comment_id": updated.ID,
		})
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}. The whole reply
// tree under the comment goes with it.
func DeleteComment(mod *moderation.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok || actor.ID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		if err := mod.RemoveComment(r.Context(), commentID, actor.ID, actor.Admin); err != nil {
			writeStoreError(w, err, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeStoreError maps the store error taxonomy onto HTTP statuses.
// Cascade failures stay generic: partial success never happens, so there
// is no detail worth exposing.
func writeStoreError(w http.ResponseWriter, err error, rid string) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		api.BadRequest(w, "INVALID_INPUT", err.Error(), rid, nil)
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", err.Error(), rid)
	case errors.Is(err, store.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", err.Error(), rid)
	case errors.Is(err, store.ErrCascadeFailed):
		api.WriteError(w, http.StatusInternalServerError, "CASCADE_FAILED",
			"operation could not complete", rid, nil)
	default:
		api.Internal(w, rid)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
