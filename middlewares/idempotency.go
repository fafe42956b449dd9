package middlewares

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"invoicing-backend/models"
)

// IdempotencyStore persists Idempotency-Key records. Implementations live
// here (memory, redis) and in the database package (SQL table).
type IdempotencyStore interface {
	// Reserve stores rec as pending and returns nil, or returns the record
	// already held under rec.Key.
	Reserve(ctx context.Context, rec *models.IdempotencyKey) (*models.IdempotencyKey, error)
	Complete(ctx context.Context, key string, status int, contentType string, body []byte) error
	// Release drops a pending record after the handler failed.
	Release(ctx context.Context, key string) error
}

const maxIdempotencyKeyLen = 128

// Idempotency processes Idempotency-Key for mutating HTTP methods. The first
// successful response is stored and replayed for repeats of the same request;
// a failed handler releases the key so the client can retry.
func Idempotency(store IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body())
		ctx := c.UserContext()

		// ---- Phase 1: reserve, or inspect whoever got there first
		existing, err := store.Reserve(ctx, &models.IdempotencyKey{
			Key:         key,
			RequestHash: reqHash,
			Method:      method,
			Path:        path,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if !existing.Completed() {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
			}
			c.Set("Idempotent-Replayed", "true")
			if existing.ContentType != "" {
				c.Set(fiber.HeaderContentType, existing.ContentType)
			}
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		// ---- Phase 2: run the handler once
		if err := c.Next(); err != nil {
			_ = store.Release(ctx, key)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			_ = store.Release(ctx, key)
			return nil
		}

		// ---- Phase 3: store the response (best-effort: don't break the successful response)
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)
		_ = store.Complete(ctx, key, status, string(c.Response().Header.ContentType()), blob)
		return nil
	}
}

// requestHash is sha256 of method|path|body.
func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
