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

	"github.com/sirupsen/logrus"

	"bhasapos/backend/internal/cache"
	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/httpapi"
	"bhasapos/backend/internal/service"
	"bhasapos/backend/internal/store/backend"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	if err := validateSecurityConfig(cfg); err != nil {
		logger.WithError(err).Fatal("invalid security configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shop, err := config.LoadShop(cfg.ShopProfilePath)
	if err != nil {
		logger.WithError(err).Warn("shop profile unavailable, using built-in header")
	}

	archive, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("bill archive unavailable")
	}
	closers := []func() error{archive.Close}
	logger.WithField("backend", archive.Backend).Info("bill archive ready")

	sessions, closeSessions := openSessions(ctx, cfg, logger)
	if closeSessions != nil {
		closers = append(closers, closeSessions)
	}

	svc := service.New(archive.Bills, shop, logger)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, archive.Users, sessions)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Address()).Info("billing backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.WithError(err).Error("close error")
		}
	}

	logger.Info("server stopped")
}

// openSessions prefers redis when REDIS_ADDR is set and falls back to the
// in-process store when redis does not answer.
func openSessions(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (cache.SessionStore, func() error) {
	if cfg.RedisAddr == "" {
		logger.Info("sessions: memory")
		return cache.NewMemorySessionStore(), nil
	}
	redisSessions := cache.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisSessions.Ping(ctx); err != nil {
		logger.WithError(err).Warn("redis unavailable, using memory sessions")
		_ = redisSessions.Close()
		return cache.NewMemorySessionStore(), nil
	}
	logger.Info("sessions: redis")
	return redisSessions, redisSessions.Close
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
