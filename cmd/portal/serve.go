package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/authportal/authportal-go/internal/config"
	"github.com/authportal/authportal-go/internal/crypto"
	"github.com/authportal/authportal-go/internal/handler"
	"github.com/authportal/authportal-go/internal/middleware"
	"github.com/authportal/authportal-go/internal/notify"
	"github.com/authportal/authportal-go/internal/repository"
	"github.com/authportal/authportal-go/internal/router"
	"github.com/authportal/authportal-go/internal/service"
	"github.com/authportal/authportal-go/internal/web"
)

const (
	flashTTL        = 10 * time.Minute
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), stderr)
		},
	}
}

func runServe(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(stderr, cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, closeStore := newSessionStore(ctx, cfg)
	defer closeStore()

	flash := notify.NewFlashStore(flashTTL)
	flash.StartJanitor(ctx, janitorInterval)

	svc := service.NewAuthService(newAPI(cfg, log), sessions, flash, service.Options{
		SessionTTL:  cfg.SessionTTL,
		TokenSecret: cfg.TokenSecret,
		Logger:      log,
	})
	svc.StartJanitor(ctx, janitorInterval)

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}
	sealer, err := crypto.NewSealer(cfg.SessionSecret, "cookie")
	if err != nil {
		return err
	}

	cookies := middleware.NewCookies(sealer, cfg.CookieSecure)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartJanitor(ctx, janitorInterval)

	view := handler.NewView(renderer, svc, log)
	h := router.New(router.Deps{
		Auth:    handler.NewAuthHandler(svc, cookies, view),
		Pages:   handler.NewPageHandler(view),
		Cookies: cookies,
		Limiter: limiter,
		Session: svc.Session,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "api", cfg.APIBaseURL, "sessions", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func newSessionStore(ctx context.Context, cfg config.Config) (repository.SessionRepository, func()) {
	if cfg.SessionStore == "redis" {
		client := repository.NewRedis(ctx, repository.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return repository.NewRedisSessionRepository(client, ""), func() { _ = client.Close() }
	}

	mem := repository.NewMemorySessionRepository()
	mem.StartJanitor(ctx, janitorInterval)
	return mem, func() {}
}
