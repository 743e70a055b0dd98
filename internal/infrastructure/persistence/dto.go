package persistence

import (
	"time"

	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/value"
)

// userSchema maps the users table row.
type userSchema struct {
	ID           string    `db:"id"`
	SecondMeID   string    `db:"secondme_id"`
	Name         *string   `db:"name"`
	Image        *string   `db:"image"`
	AccessToken  string    `db:"access_token"`
	RefreshToken *string   `db:"refresh_token"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s *userSchema) toDomain() *entity.User {
	return &entity.User{
		ID:           s.ID,
		SecondMeID:   s.SecondMeID,
		Name:         s.Name,
		Image:        s.Image,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// productSchema maps the products table row.
type productSchema struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  *string   `db:"description"`
	PublishPrice int       `db:"publish_price"`
	ImageURL     string    `db:"image_url"`
	PublisherID  string    `db:"publisher_id"`
	Category     *string   `db:"category"`
	DurationDays int       `db:"duration_days"`
	ExpiresAt    time.Time `db:"expires_at"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s *productSchema) toDomain() *entity.Product {
	return &entity.Product{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		PublishPrice: s.PublishPrice,
		ImageURL:     s.ImageURL,
		PublisherID:  s.PublisherID,
		Category:     s.Category,
		DurationDays: s.DurationDays,
		ExpiresAt:    s.ExpiresAt,
		Status:       value.ProductStatus(s.Status),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// sessionSchema maps the bargain_sessions table row.
type sessionSchema struct {
	ID           string     `db:"id"`
	ProductID    string     `db:"product_id"`
	PublisherID  string     `db:"publisher_id"`
	BargainerID  string     `db:"bargainer_id"`
	PublishPrice int        `db:"publish_price"`
	TargetPrice  int        `db:"target_price"`
	CurrentPrice int        `db:"current_price"`
	Status       string     `db:"status"`
	FinalPrice   *int       `db:"final_price"`
	CreatedAt    time.Time  `db:"created_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}

func (s *sessionSchema) toDomain() *entity.BargainSession {
	return &entity.BargainSession{
		ID:           s.ID,
		ProductID:    s.ProductID,
		PublisherID:  s.PublisherID,
		BargainerID:  s.BargainerID,
		PublishPrice: s.PublishPrice,
		TargetPrice:  s.TargetPrice,
		CurrentPrice: s.CurrentPrice,
		Status:       value.BargainStatus(s.Status),
		FinalPrice:   s.FinalPrice,
		CreatedAt:    s.CreatedAt,
		CompletedAt:  s.CompletedAt,
	}
}

// messageSchema maps the bargain_messages table row.
type messageSchema struct {
	ID         string    `db:"id"`
	SessionID  string    `db:"session_id"`
	SenderID   string    `db:"sender_id"`
	SenderRole string    `db:"sender_role"`
	Content    string    `db:"content"`
	Timestamp  time.Time `db:"timestamp"`
	IsFromAI   bool      `db:"is_from_ai"`
}

func (s *messageSchema) toDomain() *entity.BargainMessage {
	return &entity.BargainMessage{
		ID:         s.ID,
		SessionID:  s.SessionID,
		SenderID:   s.SenderID,
		SenderRole: value.SenderRole(s.SenderRole),
		Content:    s.Content,
		Timestamp:  s.Timestamp,
		IsFromAI:   s.IsFromAI,
	}
}
