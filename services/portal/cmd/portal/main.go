package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/news-portal/internal/platform/auth"
	"github.com/example/news-portal/internal/platform/config"
	"github.com/example/news-portal/internal/platform/db"
	"github.com/example/news-portal/internal/platform/events"
	"github.com/example/news-portal/internal/platform/httpserver"
	"github.com/example/news-portal/internal/platform/logging"
	"github.com/example/news-portal/internal/platform/natsconn"
	"github.com/example/news-portal/internal/platform/run"
	"github.com/example/news-portal/services/portal/internal/cascade"
	"github.com/example/news-portal/services/portal/internal/handlers"
	"github.com/example/news-portal/services/portal/internal/moderation"
	"github.com/example/news-portal/services/portal/internal/store"
	"github.com/example/news-portal/services/portal/internal/thread"
	"github.com/example/news-portal/services/portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, os.Getenv("LOG_FORMAT"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	comments, likes, purger, closePool := initStores(cfg, log)
	if closePool != nil {
		defer closePool()
	}

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	// NATS is optional outside production; the publisher degrades to a no-op.
	var pub *events.Publisher
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		if cfg.IsProduction() {
			log.Error("nats is required in production", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("nats unavailable, events disabled", zap.Error(err))
	} else {
		defer nc.Close()
		js, jsErr := nc.JetStream()
		if jsErr != nil {
			log.Warn("jetstream unavailable, events disabled", zap.Error(jsErr))
		} else {
			pub = events.New(js, log)
		}
	}

	assembler := thread.New(comments, likes)
	deleter := cascade.New(comments, purger, log)
	mod := moderation.New(comments, deleter, pub, log)

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	// Public reads carry the viewer when a token is present.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Get("/v1/articles/{article_id}/comments", handlers.GetThread(assembler))
		r.Get("/v1/articles/{article_id}/likes", handlers.GetArticleLikes(likes))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/articles/{article_id}/comments", handlers.CreateComment(comments, pub))
		r.Post("/v1/articles/{article_id}/like", handlers.LikeArticle(likes))
		r.Delete("/v1/articles/{article_id}/like", handlers.UnlikeArticle(likes))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(comments, pub))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(mod))
		r.Post("/v1/comments/{comment_id}/like", handlers.LikeComment(comments, likes))
		r.Delete("/v1/comments/{comment_id}/like", handlers.UnlikeComment(likes))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Delete("/v1/admin/users/{user_id}/comments", handlers.PurgeUserComments(mod))
			r.Delete("/v1/admin/articles/{article_id}/comments", handlers.PurgeArticleComments(mod))
		})
	})

	srv := httpserver.New(httpserver.Options{
		Addr:        cfg.HTTP.Addr,
		ServiceName: cfg.ServiceName,
		Logger:      log,
		Router:      r,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			go worker.StartArticleConsumer(ctx, nc, mod, log)
		}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the storage backend. In production a working Postgres
// connection is required and the process terminates without one; outside
// production a missing DATABASE_URL falls back to the in-memory store.
func initStores(cfg config.AppConfig, log *zap.Logger) (store.CommentStore, store.LikeLedger, store.Purger, func()) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory store (development only)")
		mem := store.NewMemory()
		return mem, mem, mem, nil
	}

	pool, err := db.OpenDSN(context.Background(), dsn)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory store", zap.Error(err))
		mem := store.NewMemory()
		return mem, mem, mem, nil
	}

	log.Info("store backend: postgres")
	return store.NewPostgresComments(pool), store.NewPostgresLikes(pool), store.NewPostgresPurger(pool), pool.Close
}
