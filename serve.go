package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parisxmas/formcraft/internal/config"
	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/handler"
	"github.com/parisxmas/formcraft/internal/repository"
	"github.com/parisxmas/formcraft/internal/router"
	"github.com/parisxmas/formcraft/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Serves the REST API under /api/v1 and the fill pages under /f/{formId}.
Indexes are created in the background; the server accepts requests at once.
SIGINT or SIGTERM drains in-flight requests and flushes queued drafts.`,
	RunE: runServe,
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("document store connected", zap.String("driver", cfg.Storage.Driver))

	formRepo := repository.NewFormRepo(store)
	responseRepo := repository.NewResponseRepo(store)
	uploadRepo := repository.NewUploadRepo(store)
	indexers := map[string]indexer{
		repository.FormsCollection:     formRepo,
		repository.ResponsesCollection: responseRepo,
		repository.UploadsCollection:   uploadRepo,
	}

	draftStore, closeDrafts, err := openDrafts(ctx, store)
	if err != nil {
		return err
	}
	defer closeDrafts()
	if ix, ok := draftStore.(indexer); ok {
		indexers[repository.DraftsCollection] = ix
	}

	forms := service.NewFormService(formRepo)
	drafts := service.NewDraftService(draftStore, logger)
	autosaver := service.NewAutosaver(drafts, cfg.DraftThrottle())
	defer autosaver.Close()
	responses := service.NewResponseService(responseRepo, formRepo, uploadRepo, autosaver, logger)
	uploads := service.NewUploadService(uploadRepo, formRepo)

	maxUpload := cfg.MaxUploadBytes()
	mux := router.New(cfg.Auth.JWTSecret, logger, router.Handlers{
		Forms:     handler.NewFormHandler(forms, logger),
		Dashboard: handler.NewDashboardHandler(forms, logger),
		Responses: handler.NewResponseHandler(forms, responses, logger),
		Uploads:   handler.NewUploadHandler(uploads, forms, maxUpload, logger),
		Public:    handler.NewPublicHandler(forms, responses, drafts, autosaver, logger),
		Pages:     handler.NewPageHandler(forms, responses, uploads, drafts, maxUpload, logger),
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ensureIndexes(gctx, indexers)
		return nil
	})
	g.Go(func() error {
		logger.Info("formcraft server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openDrafts selects the draft backend. The returned func releases it.
func openDrafts(ctx context.Context, store docstore.Store) (repository.DraftStore, func(), error) {
	d := cfg.Drafts
	if d.Backend != config.DraftsRedis {
		return repository.NewDocDraftRepo(store), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     d.RedisAddr,
		Password: d.RedisPassword,
		DB:       d.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis at %s: %w", d.RedisAddr, err)
	}
	logger.Info("draft store: redis", zap.String("addr", d.RedisAddr), zap.Duration("ttl", cfg.DraftTTL()))
	return repository.NewRedisDraftRepo(client, cfg.DraftTTL()), func() { client.Close() }, nil
}

// ensureIndexes runs index creation for every collection. Failures are
// logged; the server keeps running without the index.
func ensureIndexes(ctx context.Context, indexers map[string]indexer) {
	for name, ix := range indexers {
		start := time.Now()
		if err := ix.EnsureIndexes(ctx); err != nil {
			logger.Warn("index creation failed", zap.String("collection", name), zap.Error(err))
			continue
		}
		logger.Info("indexes ready", zap.String("collection", name), zap.Duration("took", time.Since(start).Round(time.Millisecond)))
	}
}
