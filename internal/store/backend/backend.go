// Package backend opens the archive implementation named by the config.
package backend

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/store"
	"bhasapos/backend/internal/store/keyvalue"
	"bhasapos/backend/internal/store/memory"
	"bhasapos/backend/internal/store/postgres"
)

// Archive bundles the bill archive, the account store behind login and the
// resources to release on shutdown.
type Archive struct {
	Bills   store.Repository
	Users   store.UserStore
	Backend string
	closers []func() error
}

func (a *Archive) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Open(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Archive, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveMemory:
		mem := memory.NewSeeded()
		logger.Warn("bill archive is in memory; records are lost on restart")
		return &Archive{Bills: mem, Users: mem, Backend: cfg.ArchiveBackend}, nil

	case config.ArchiveFile:
		logger.WithField("dir", cfg.ArchiveDir).Info("bill archive on local files")
		return &Archive{
			Bills:   keyvalue.New(keyvalue.NewFileMedium(cfg.ArchiveDir)),
			Users:   memory.NewSeeded(),
			Backend: cfg.ArchiveBackend,
		}, nil

	case config.ArchiveRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("ARCHIVE_BACKEND=redis requires REDIS_ADDR")
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := keyvalue.PingRedis(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis archive: %w", err)
		}
		logger.WithField("addr", cfg.RedisAddr).Info("bill archive on redis")
		return &Archive{
			Bills:   keyvalue.New(keyvalue.NewRedisMedium(client, "bhasapos:")),
			Users:   memory.NewSeeded(),
			Backend: cfg.ArchiveBackend,
			closers: []func() error{client.Close},
		}, nil

	case config.ArchivePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("ARCHIVE_BACKEND=postgres requires DATABASE_URL")
		}
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres archive: %w", err)
		}
		if err := seedAccounts(ctx, pg); err != nil {
			_ = pg.Close()
			return nil, err
		}
		logger.Info("bill archive on postgres")
		return &Archive{Bills: pg, Users: pg, Backend: cfg.ArchiveBackend, closers: []func() error{pg.Close}}, nil
	}
	return nil, fmt.Errorf("unknown ARCHIVE_BACKEND %q", cfg.ArchiveBackend)
}

// seedAccounts copies the dev accounts into an empty account table.
func seedAccounts(ctx context.Context, users store.UserStore) error {
	existing, err := users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	seeded, err := memory.NewSeeded().ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, user := range seeded {
		if err := users.CreateUser(ctx, user); err != nil && !errors.Is(err, store.ErrInvalidUser) {
			return fmt.Errorf("seed account %s: %w", user.Username, err)
		}
	}
	return nil
}
