package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReplayStoreLifecycle(t *testing.T) {
	s := NewReplayStore(time.Hour)

	res, _ := s.begin("k1", "fp")
	assert.Equal(t, beginStarted, res)

	res, _ = s.begin("k1", "fp")
	assert.Equal(t, beginInFlight, res)

	res, _ = s.begin("k1", "other")
	assert.Equal(t, beginMismatch, res)

	s.complete("k1", 200, "application/json", []byte(`{"id":"pi_1"}`))

	res, entry := s.begin("k1", "fp")
	assert.Equal(t, beginReplay, res)
	assert.Equal(t, 200, entry.status)
	assert.Equal(t, `{"id":"pi_1"}`, string(entry.body))
}

func TestReplayStoreAbandonFreesKey(t *testing.T) {
	s := NewReplayStore(time.Hour)

	s.begin("k1", "fp")
	s.abandon("k1")

	res, _ := s.begin("k1", "fp")
	assert.Equal(t, beginStarted, res)
}

func TestReplayStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewReplayStore(10 * time.Minute)
	s.now = func() time.Time { return now }

	s.begin("k1", "fp")
	s.complete("k1", 200, "application/json", nil)

	now = now.Add(9 * time.Minute)
	res, _ := s.begin("k1", "different")
	assert.Equal(t, beginMismatch, res)

	now = now.Add(2 * time.Minute)
	res, _ = s.begin("k1", "different")
	assert.Equal(t, beginStarted, res)
}

func TestReplayStoreSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewReplayStore(time.Minute)
	s.now = func() time.Time { return now }

	s.begin("old", "fp")
	now = now.Add(2 * time.Minute)
	s.begin("new", "fp")

	_, ok := s.entries["old"]
	assert.False(t, ok)
	assert.Len(t, s.entries, 1)
}
