package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/news-portal/services/portal/internal/moderation"
)

// ArticleDeletedEvent is published by the article service when an article
// is removed. The portal reacts by purging the article's comment forest.
type ArticleDeletedEvent struct {
	EventID   string `json:"event_id"`
	ArticleID string `json:"article_id"`
	CreatedAt string `json:"created_at"`
}

const (
	articleDeletedSubject = "portal.articles.deleted"
	articleDeletedDurable = "portal_article_cleanup"
)

// StartArticleConsumer subscribes to article-deleted events and runs the
// article cascade for each one. RemoveArticleContent is atomic and
// idempotent (purging an already-empty article is a no-op), so redelivery
// after a missed ack is harmless.
func StartArticleConsumer(ctx context.Context, nc *nats.Conn, mod *moderation.Facade, log *zap.Logger) {
	js, err := nc.JetStream()
	if err != nil {
		log.Error("article consumer: jetstream", zap.Error(err))
		return
	}

	sub, err := js.PullSubscribe(articleDeletedSubject, articleDeletedDurable)
	if err != nil {
		log.Error("article consumer: subscribe", zap.Error(err))
		return
	}

	log.Info("article consumer started", zap.String("subject", articleDeletedSubject))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(2*time.Second))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			log.Warn("article consumer: fetch", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, m := range msgs {
			var ev ArticleDeletedEvent
			if err := json.Unmarshal(m.Data, &ev); err != nil || strings.TrimSpace(ev.ArticleID) == "" {
				log.Warn("article consumer: invalid event", zap.Error(err))
				_ = m.Ack() // malformed events would redeliver forever
				continue
			}

			if err := mod.RemoveArticleContent(ctx, ev.ArticleID); err != nil {
				log.Error("article consumer: cascade",
					zap.String("article_id", ev.ArticleID), zap.Error(err))
				if err := m.Nak(); err != nil {
					log.Warn("article consumer: nak", zap.Error(err))
				}
				continue
			}
			if err := m.Ack(); err != nil {
				log.Warn("article consumer: ack", zap.Error(err))
			}
		}
	}
}
