package models

import "time"

// IdempotencyKey stores the first completed response for a given request hash.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex"` // header value
	RequestHash    string     `json:"request_hash" gorm:"size:64"`     // sha256 of method|path|body
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	ResponseStatus int        `json:"response_status"` // 0 => not completed yet
	ContentType    string     `json:"content_type" gorm:"size:128"`
	ResponseBody   []byte     `json:"response_body"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
	CompletedAt    *time.Time `json:"completed_at"`
}

func (k *IdempotencyKey) Completed() bool {
	return k.ResponseStatus != 0 && k.ResponseBody != nil
}
