package entity

import (
	"time"

	"duoduo-bargain/internal/domain/value"
)

type Product struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  *string             `json:"description"`
	PublishPrice int                 `json:"publish_price"`
	ImageURL     string              `json:"image_url"`
	PublisherID  string              `json:"publisher_id"`
	Category     *string             `json:"category"`
	DurationDays int                 `json:"duration_days"`
	ExpiresAt    time.Time           `json:"expires_at"`
	Status       value.ProductStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// IsListed reports whether the product is still visible in the bargain hall.
func (p Product) IsListed(now time.Time) bool {
	return p.Status == value.ProductActive && p.ExpiresAt.After(now)
}
