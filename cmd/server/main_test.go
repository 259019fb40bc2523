package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"bhasapos/backend/internal/cache"
	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/domain"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	for _, secret := range []string{"", "short", "0123456789abcdef0123456789abcde"} {
		if err := validateSecurityConfig(config.Config{AuthSecret: secret}); err == nil {
			t.Fatalf("expected secret %q to be rejected", secret)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestOpenSessionsFallsBackToMemory(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sessions, closer := openSessions(ctx, config.Config{}, logger)
	if _, ok := sessions.(*cache.MemorySessionStore); !ok || closer != nil {
		t.Fatalf("expected memory sessions without REDIS_ADDR, got %T", sessions)
	}

	sessions, closer = openSessions(ctx, config.Config{RedisAddr: "127.0.0.1:1"}, logger)
	if _, ok := sessions.(*cache.MemorySessionStore); !ok || closer != nil {
		t.Fatalf("expected memory fallback for unreachable redis, got %T", sessions)
	}
	if err := sessions.Put(ctx, domain.Session{ID: "sess-1", ExpiresAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("fallback store should accept sessions: %v", err)
	}
}
