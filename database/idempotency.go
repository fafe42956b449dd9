package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"invoicing-backend/models"
)

// IdempotencyStore keeps Idempotency-Key records in the idempotency_keys table.
// Conditions on key go through struct queries so the column is quoted; KEY is
// reserved in MySQL.
type IdempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl}
}

// Reserve inserts rec as pending. If the key is already taken the stored
// record is returned instead; expired records are replaced.
func (s *IdempotencyStore) Reserve(ctx context.Context, rec *models.IdempotencyKey) (*models.IdempotencyKey, error) {
	db := s.db.WithContext(ctx)

	var existing models.IdempotencyKey
	err := db.Where(&models.IdempotencyKey{Key: rec.Key}).First(&existing).Error
	switch {
	case err == nil && s.ttl > 0 && time.Since(existing.CreatedAt) > s.ttl:
		if err := db.Delete(&models.IdempotencyKey{}, existing.ID).Error; err != nil {
			return nil, err
		}
	case err == nil:
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	// Not in a transaction: postgres aborts it on the unique violation.
	if err := db.Create(rec).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		var winner models.IdempotencyKey
		if err := db.Where(&models.IdempotencyKey{Key: rec.Key}).First(&winner).Error; err != nil {
			return nil, err
		}
		return &winner, nil
	}
	return nil, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, status int, contentType string, body []byte) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&models.IdempotencyKey{}).
		Where(&models.IdempotencyKey{Key: key}).
		Updates(map[string]any{
			"response_status": status,
			"content_type":    contentType,
			"response_body":   body,
			"completed_at":    &now,
		}).Error
}

// Release drops a pending record so the client may retry after a failure.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where(&models.IdempotencyKey{Key: key}).
		Where("response_status = 0").
		Delete(&models.IdempotencyKey{}).Error
}
