package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
)

type replayEntry struct {
	fingerprint string
	done        bool
	status      int
	contentType string
	body        []byte
	expiresAt   time.Time
}

// ReplayStore remembers responses per Idempotency-Key for the life of the
// process. It is a best-effort guard against client retries, not a durable log.
type ReplayStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]*replayEntry
	lastSweep time.Time
}

func NewReplayStore(ttl time.Duration) *ReplayStore {
	return &ReplayStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*replayEntry),
	}
}

type beginResult int

const (
	beginStarted beginResult = iota
	beginReplay
	beginInFlight
	beginMismatch
)

// begin claims key for a new request, or reports why it cannot.
func (s *ReplayStore) begin(key, fingerprint string) (beginResult, replayEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		switch {
		case e.fingerprint != fingerprint:
			return beginMismatch, replayEntry{}
		case !e.done:
			return beginInFlight, replayEntry{}
		default:
			return beginReplay, *e
		}
	}

	s.entries[key] = &replayEntry{fingerprint: fingerprint, expiresAt: now.Add(s.ttl)}
	return beginStarted, replayEntry{}
}

func (s *ReplayStore) complete(key string, status int, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.done = true
		e.status = status
		e.contentType = contentType
		e.body = body
		e.expiresAt = s.now().Add(s.ttl)
	}
}

func (s *ReplayStore) abandon(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// sweep drops expired entries at most once a minute. mu must be held.
func (s *ReplayStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Idempotency replays the stored response when a request repeats its
// Idempotency-Key. Requests without the header pass straight through.
func Idempotency(store *ReplayStore, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Get Key from Header
		key := c.Get(IdempotencyKeyHeader)
		if key == "" {
			return c.Next()
		}

		// 2. Check if key exists
		result, entry := store.begin(key, fingerprint(c))
		switch result {
		case beginReplay:
			logger.Info("🛑 Idempotency Hit! Returning cached response", "key", key)
			c.Set(IdempotencyHitHeader, "true")
			c.Set(fiber.HeaderContentType, entry.contentType)
			return c.Status(entry.status).Send(entry.body)
		case beginInFlight:
			return domain.Conflict("A request with this Idempotency-Key is still being processed")
		case beginMismatch:
			return domain.Conflict("Idempotency-Key was already used for a different request")
		}

		// A panicking handler must not leave the key stuck in flight.
		saved := false
		defer func() {
			if !saved {
				store.abandon(key)
			}
		}()

		// 3. Run the Handler
		if err := c.Next(); err != nil {
			render(c, err)
		}

		// 4. Save the Result; retryable outcomes are not stored
		status := c.Response().StatusCode()
		if retryable(status) {
			return nil
		}

		body := append([]byte(nil), c.Response().Body()...)
		store.complete(key, status, string(c.Response().Header.ContentType()), body)
		saved = true
		logger.Debug("💾 Idempotency Key Saved", "key", key, "status", status)
		return nil
	}
}

// retryable reports statuses whose outcome may change on a later attempt:
// server failures, rate limits and unmet preconditions (409).
func retryable(status int) bool {
	return status >= fiber.StatusInternalServerError ||
		status == fiber.StatusTooManyRequests ||
		status == fiber.StatusConflict
}

// fingerprint identifies the request a key was first used with.
func fingerprint(c *fiber.Ctx) string {
	h := sha256.New()
	h.Write([]byte(c.Method()))
	h.Write([]byte{0})
	h.Write([]byte(c.Path()))
	h.Write([]byte{0})
	h.Write(c.Body())
	return hex.EncodeToString(h.Sum(nil))
}
