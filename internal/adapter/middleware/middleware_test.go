package middleware_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/handler"
	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/middleware"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		Immutable:    true,
		ErrorHandler: handler.ErrorHandler(quietLogger()),
	})
}

func post(t *testing.T, app *fiber.App, path, key, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestIdempotencyReplaysCompletedRequest(t *testing.T) {
	app := newApp()
	calls := 0
	app.Post("/payments", middleware.Idempotency(middleware.NewReplayStore(time.Hour), quietLogger()), func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": "pi_1", "n": calls})
	})

	first, firstBody := post(t, app, "/payments", "key-1", `{"amount":1000}`)
	second, secondBody := post(t, app, "/payments", "key-1", `{"amount":1000}`)

	assert.Equal(t, fiber.StatusOK, first.StatusCode)
	assert.Empty(t, first.Header.Get(middleware.IdempotencyHitHeader))
	assert.Equal(t, fiber.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(middleware.IdempotencyHitHeader))
	assert.Equal(t, firstBody, secondBody)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	app := newApp()
	app.Post("/payments", middleware.Idempotency(middleware.NewReplayStore(time.Hour), quietLogger()), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	post(t, app, "/payments", "key-1", `{"amount":1000}`)
	resp, body := post(t, app, "/payments", "key-1", `{"amount":2000}`)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var env handler.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	assert.Equal(t, "CONFLICT", string(env.Code))
}

func TestIdempotencyDoesNotCacheServerFailures(t *testing.T) {
	app := newApp()
	store := middleware.NewReplayStore(time.Hour)
	calls := 0
	app.Post("/fail", middleware.Idempotency(store, quietLogger()), func(c *fiber.Ctx) error {
		calls++
		return errors.New("boom")
	})

	resp, _ := post(t, app, "/fail", "key-1", `{}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	resp, _ = post(t, app, "/fail", "key-1", `{}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(middleware.IdempotencyHitHeader))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyDoesNotCacheRetryableClientErrors(t *testing.T) {
	failures := map[int]error{
		fiber.StatusTooManyRequests: domain.NewError(domain.KindRateLimited, "Too many requests"),
		fiber.StatusConflict:        domain.OnboardingRequired("Treasury account cannot receive transfers yet"),
	}
	for status, failure := range failures {
		app := newApp()
		calls := 0
		app.Post("/transfers/treasury", middleware.Idempotency(middleware.NewReplayStore(time.Hour), quietLogger()), func(c *fiber.Ctx) error {
			calls++
			if calls == 1 {
				return failure
			}
			return c.JSON(fiber.Map{"id": "tr_1"})
		})

		first, _ := post(t, app, "/transfers/treasury", "key-1", `{"amount":100}`)
		retry, body := post(t, app, "/transfers/treasury", "key-1", `{"amount":100}`)

		assert.Equal(t, status, first.StatusCode)
		assert.Equal(t, fiber.StatusOK, retry.StatusCode, body)
		assert.Empty(t, retry.Header.Get(middleware.IdempotencyHitHeader))
		assert.Equal(t, 2, calls)
	}
}

func TestIdempotencyReplaysClientErrors(t *testing.T) {
	app := newApp()
	calls := 0
	app.Post("/payments", middleware.Idempotency(middleware.NewReplayStore(time.Hour), quietLogger()), func(c *fiber.Ctx) error {
		calls++
		return fiber.NewError(fiber.StatusBadRequest, "Missing currency")
	})

	post(t, app, "/payments", "key-1", `{}`)
	resp, _ := post(t, app, "/payments", "key-1", `{}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(middleware.IdempotencyHitHeader))
	assert.Equal(t, 1, calls)
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	app := newApp()
	calls := 0
	app.Post("/payments", middleware.Idempotency(middleware.NewReplayStore(time.Hour), quietLogger()), func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusOK)
	})

	post(t, app, "/payments", "", `{}`)
	post(t, app, "/payments", "", `{}`)
	assert.Equal(t, 2, calls)
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	app := newApp()
	app.Use(middleware.RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.RequestIDFrom(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "req-abc", string(body))
	assert.Equal(t, "req-abc", resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Len(t, string(body), 36)
	assert.Equal(t, string(body), resp.Header.Get(fiber.HeaderXRequestID))
}

func TestRequestLoggerRecordsRenderedStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := newApp()
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request completed", line["msg"])
	assert.Equal(t, float64(fiber.StatusNotFound), line["status"])
	assert.Equal(t, "/missing", line["path"])
	assert.NotEmpty(t, line["request_id"])
}
