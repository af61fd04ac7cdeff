package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisDefaults(t *testing.T) {
	got := RedisConfig{}.withDefaults()
	if got.DialTimeout != 3*time.Second || got.PoolSize != 20 {
		t.Fatalf("defaults = %v/%d, want 3s/20", got.DialTimeout, got.PoolSize)
	}
}

func TestDialWindowScriptCompiles(t *testing.T) {
	// Compile-time smoke test: the script should be initialized.
	if dialWindowScript == nil {
		t.Fatalf("expected dial window script to be initialized")
	}
}

func TestAllowDialAttemptValidation(t *testing.T) {
	if _, err := AllowDialAttempt(context.Background(), nil, "agent-1", 5, time.Minute); err == nil {
		t.Fatal("expected error for nil client")
	}
}
