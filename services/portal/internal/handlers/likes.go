package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/news-portal/internal/platform/api"
	"github.com/example/news-portal/internal/platform/auth"
	"github.com/example/news-portal/internal/platform/httpserver"
	"github.com/example/news-portal/services/portal/internal/store"
)

type likeCountResponse struct {
	TargetType    store.TargetType `json:"target_type"`
	TargetID      string           `json:"target_id"`
	Count         int              `json:"count"`
	LikedByViewer *bool            `json:"liked_by_viewer,omitempty"`
}

// LikeComment handles POST /v1/comments/{comment_id}/like. The comment
// must exist; a like racing a cascade either lands and is swept away with
// the target or fails here with 404, both are fine.
func LikeComment(cs store.CommentStore, ll store.LikeLedger) http.HandlerFunc {
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
		if _, err := cs.GetByID(r.Context(), commentID); err != nil {
			writeStoreError(w, err, rid)
			return
		}

		like, err := ll.Like(r.Context(), actor.ID, store.TargetComment, commentID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, like)
	}
}

// UnlikeComment handles DELETE /v1/comments/{comment_id}/like.
func UnlikeComment(ll store.LikeLedger) http.HandlerFunc {
	return unlikeTarget(ll, store.TargetComment, "comment_id")
}

// LikeArticle handles POST /v1/articles/{article_id}/like. Article
// existence is the article service's concern, not validated here.
func LikeArticle(ll store.LikeLedger) http.HandlerFunc {
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

		like, err := ll.Like(r.Context(), actor.ID, store.TargetArticle, articleID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, like)
	}
}

// UnlikeArticle handles DELETE /v1/articles/{article_id}/like.
func UnlikeArticle(ll store.LikeLedger) http.HandlerFunc {
	return unlikeTarget(ll, store.TargetArticle, "article_id")
}

func unlikeTarget(ll store.LikeLedger, tt store.TargetType, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok || actor.ID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		targetID := strings.TrimSpace(chi.URLParam(r, param))
		if targetID == "" {
			api.BadRequest(w, "MISSING_ID", param+" is required", rid, nil)
			return
		}

		// Idempotent: unliking something never liked is a no-op.
		if err := ll.Unlike(r.Context(), actor.ID, tt, targetID); err != nil {
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetArticleLikes handles GET /v1/articles/{article_id}/likes.
func GetArticleLikes(ll store.LikeLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		articleID := strings.TrimSpace(chi.URLParam(r, "article_id"))
		if articleID == "" {
			api.BadRequest(w, "MISSING_ID", "article_id is required", rid, nil)
			return
		}

		count, err := ll.CountFor(r.Context(), store.TargetArticle, articleID)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		resp := likeCountResponse{TargetType: store.TargetArticle, TargetID: articleID, Count: count}

		if actor, ok := auth.ActorFromContext(r.Context()); ok && actor.ID != "" {
			liked, err := ll.HasLiked(r.Context(), actor.ID, store.TargetArticle, articleID)
			if err != nil {
				api.Internal(w, rid)
				return
			}
			resp.LikedByViewer = &liked
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
