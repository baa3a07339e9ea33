package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/news-portal/internal/platform/api"
	"github.com/example/news-portal/internal/platform/httpserver"
	"github.com/example/news-portal/services/portal/internal/moderation"
)

// PurgeUserComments handles DELETE /v1/admin/users/{user_id}/comments.
// Routes mount it behind auth.RequireAdmin.
func PurgeUserComments(mod *moderation.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
		if userID == "" {
			api.BadRequest(w, "MISSING_ID", "user_id is required", rid, nil)
			return
		}

		if err := mod.RemoveUserContent(r.Context(), userID); err != nil {
			writeStoreError(w, err, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PurgeArticleComments handles DELETE /v1/admin/articles/{article_id}/comments.
func PurgeArticleComments(mod *moderation.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		articleID := strings.TrimSpace(chi.URLParam(r, "article_id"))
		if articleID == "" {
			api.BadRequest(w, "MISSING_ID", "article_id is required", rid, nil)
			return
		}

		if err := mod.RemoveArticleContent(r.Context(), articleID); err != nil {
			writeStoreError(w, err, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
