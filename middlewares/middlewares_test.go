package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/config"
	"invoicing-backend/models"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(config.NewNopLogger())})
}

func send(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/missing", func(c *fiber.Ctx) error {
		return models.NewNotFound("invoice", "INV-1")
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		ve := models.NewValidationError()
		ve.Add("items[0].quantity", "min")
		return ve
	})
	app.Get("/dup", func(c *fiber.Ctx) error {
		return models.ErrAlreadyExists
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("disk on fire")
	})

	resp, body := send(t, app, http.MethodGet, "/missing", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["message"], "INV-1")

	resp, body = send(t, app, http.MethodGet, "/invalid", "", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, map[string]any{"items[0].quantity": "min"}, body["errors"])

	resp, _ = send(t, app, http.MethodGet, "/dup", "", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = send(t, app, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["message"])
}

type widgetInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestBindAndValidate(t *testing.T) {
	app := newTestApp()
	app.Post("/widgets", func(c *fiber.Ctx) error {
		var in widgetInput
		if err := BindAndValidate(c, &in); err != nil {
			return err
		}
		return c.JSON(in)
	})

	resp, body := send(t, app, http.MethodPost, "/widgets", `{"name":"  Lamp  "}`, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lamp", body["name"])

	resp, body = send(t, app, http.MethodPost, "/widgets", `{"name":"   ","email":"nope"}`, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, map[string]any{"name": "required", "email": "email"}, body["errors"])

	resp, _ = send(t, app, http.MethodPost, "/widgets", `{"name":`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func countingApp(store IdempotencyStore, calls *int32, fail *atomic.Bool) *fiber.App {
	app := newTestApp()
	app.Use(Idempotency(store))
	app.Post("/orders", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(calls, 1)
		if fail != nil && fail.Load() {
			return errors.New("downstream unavailable")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": n})
	})
	return app
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	var calls int32
	app := countingApp(NewMemoryIdempotencyStore(time.Hour), &calls, nil)
	key := map[string]string{"Idempotency-Key": "order-1"}

	resp, first := send(t, app, http.MethodPost, "/orders", `{"sku":"A"}`, key)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Idempotent-Replayed"))

	resp, second := send(t, app, http.MethodPost, "/orders", `{"sku":"A"}`, key)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Same key, different payload
	resp, _ = send(t, app, http.MethodPost, "/orders", `{"sku":"B"}`, key)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// No key: no protection
	send(t, app, http.MethodPost, "/orders", `{"sku":"A"}`, nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	var (
		calls int32
		fail  atomic.Bool
	)
	fail.Store(true)
	app := countingApp(NewMemoryIdempotencyStore(time.Hour), &calls, &fail)
	key := map[string]string{"Idempotency-Key": "order-2"}

	resp, _ := send(t, app, http.MethodPost, "/orders", `{}`, key)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	fail.Store(false)
	resp, _ = send(t, app, http.MethodPost, "/orders", `{}`, key)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	var calls int32
	store := NewMemoryIdempotencyStore(time.Hour)
	app := countingApp(store, &calls, nil)

	existing, err := store.Reserve(context.Background(), &models.IdempotencyKey{
		Key:         "order-3",
		RequestHash: requestHash(http.MethodPost, "/orders", []byte(`{}`)),
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	require.Nil(t, existing)

	resp, body := send(t, app, http.MethodPost, "/orders", `{}`, map[string]string{"Idempotency-Key": "order-3"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "in progress")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestIdempotencyKeyTooLong(t *testing.T) {
	var calls int32
	app := countingApp(NewMemoryIdempotencyStore(time.Hour), &calls, nil)
	resp, _ := send(t, app, http.MethodPost, "/orders", `{}`, map[string]string{"Idempotency-Key": strings.Repeat("k", 129)})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMemoryIdempotencyStoreExpires(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()
	rec := &models.IdempotencyKey{Key: "k", RequestHash: "h", CreatedAt: time.Now().Add(-2 * time.Minute)}

	existing, err := store.Reserve(ctx, rec)
	require.NoError(t, err)
	require.Nil(t, existing)

	// The stored record is already past its ttl, so the key is free again.
	existing, err = store.Reserve(ctx, &models.IdempotencyKey{Key: "k", RequestHash: "h2", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Nil(t, existing)

	existing, err = store.Reserve(ctx, &models.IdempotencyKey{Key: "k", RequestHash: "h3", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "h2", existing.RequestHash)
}

func TestRequestLoggerRecordsFinalStatus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(RequestLogger(logger))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return models.NewNotFound("product", "prod-404")
	})

	resp, _ := send(t, app, http.MethodGet, "/missing", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, fiber.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/missing", entry.Data["path"])
	assert.Equal(t, "request rejected", entry.Message)
}
