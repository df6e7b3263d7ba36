package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfig_Defaults(t *testing.T) {
	got := RedisConfig{}.withDefaults()
	if got.DialTimeout <= 0 || got.PoolSize <= 0 || got.PingTimeout <= 0 {
		t.Fatalf("expected defaults applied, got %+v", got)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{PingTimeout: 10 * time.Millisecond}); err == nil {
		t.Fatal("expected error for missing addr")
	}
}
