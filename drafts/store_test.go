package drafts

import (
	"testing"
	"time"
)

func TestDraftStaleness(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	fresh := Draft{SavedAt: now.Add(-23 * time.Hour)}
	if fresh.IsStale(now) {
		t.Error("a 23h-old draft must still be usable")
	}

	stale := Draft{SavedAt: now.Add(-24 * time.Hour)}
	if !stale.IsStale(now) {
		t.Error("a 24h-old draft must be discarded")
	}
}

func TestGetWithoutRedisIsNotFoundNotError(t *testing.T) {
	// With no redis connected the store degrades to "no draft", never an
	// error: drafts are a convenience, not a system of record.
	draft, exists, err := Get("session-without-redis")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if exists || draft != nil {
		t.Fatal("expected no draft")
	}
}
