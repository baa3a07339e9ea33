// Package moderation composes the comment store and the cascade deleter
// behind the operations the HTTP layer and the worker call.
package moderation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/news-portal/internal/platform/events"
	"github.com/example/news-portal/services/portal/internal/cascade"
	"github.com/example/news-portal/services/portal/internal/store"
)

// Facade coordinates moderation operations. Permission checks run before
// any mutation; a forbidden request leaves the store untouched.
type Facade struct {
	comments store.CommentStore
	cascade  *cascade.Deleter
	events   *events.Publisher
	log      *zap.Logger
}

func New(comments store.CommentStore, del *cascade.Deleter, ev *events.Publisher, log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{comments: comments, cascade: del, events: ev, log: log}
}

// RemoveComment deletes one comment tree on behalf of an actor. Only the
// comment's author or an admin may do it; the isAdmin flag is supplied by
// the caller, the facade does not resolve roles itself.
func (f *Facade) RemoveComment(ctx context.Context, id, actorID string, isAdmin bool) error {
	c, err := f.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && c.AuthorID != actorID {
		return fmt.Errorf("%w: actor %s may not remove comment %s", store.ErrForbidden, actorID, id)
	}

	if err := f.cascade.DeleteCommentTree(ctx, id); err != nil {
		return err
	}
	f.events.Publish(events.SubjectModerationCommentRemove, "comment_removed", actorID, map[string]any{
		"comment_id": id,
		"article_id": c.ArticleID,
		"as_admin":   isAdmin,
	})
	return nil
}

// RemoveUserContent deletes every comment the user authored, with their
// descendant trees and likes. User and article row cleanup stays with the
// caller.
func (f *Facade) RemoveUserContent(ctx context.Context, userID string) error {
	if err := f.cascade.DeleteAllCommentsByUser(ctx, userID); err != nil {
		return err
	}
	f.events.Publish(events.SubjectModerationUserPurged, "user_purged", "", map[string]any{
		"user_id": userID,
	})
	return nil
}

// RemoveArticleContent deletes the article's whole comment forest and the
// article's own likes. Called when the article itself is being deleted.
func (f *Facade) RemoveArticleContent(ctx context.Context, articleID string) error {
	if err := f.cascade.DeleteAllCommentsForArticle(ctx, articleID); err != nil {
		return err
	}
	f.events.Publish(events.SubjectModerationArticlePurged, "article_purged", "", map[string]any{
		"article_id": articleID,
	})
	return nil
}
