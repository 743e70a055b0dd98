// This file should be generated from the openapi specification and be called
// types.gen.go.
package rest

import "time"

type User struct {
	ID         string    `json:"id"`
	SecondMeID string    `json:"secondmeId"`
	Name       *string   `json:"name,omitempty"`
	Image      *string   `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type MockLoginRequest struct {
	SecondMeID  string  `json:"secondmeId" validate:"required"`
	Name        *string `json:"name"`
	AccessToken string  `json:"accessToken"`
}

type Product struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	PublishPrice int        `json:"publishPrice"`
	ImageURL     string     `json:"imageUrl"`
	PublisherID  string     `json:"publisherId"`
	Category     *string    `json:"category,omitempty"`
	DurationDays int        `json:"durationDays"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type CreateProductRequest struct {
	Title        string  `json:"title" validate:"required"`
	Description  *string `json:"description"`
	PublishPrice int     `json:"publishPrice" validate:"required,gt=0"`
	ImageURL     string  `json:"imageUrl" validate:"required"`
	Category     *string `json:"category"`
	DurationDays int     `json:"durationDays" validate:"required,gt=0"`
}

type UpdateProductRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	PublishPrice *int    `json:"publishPrice" validate:"omitempty,gt=0"`
	ImageURL     *string `json:"imageUrl"`
	Category     *string `json:"category"`
	DurationDays *int    `json:"durationDays" validate:"omitempty,gt=0"`
}

type BargainMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	SenderID   string    `json:"senderId"`
	SenderRole string    `json:"senderRole"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsFromAI   bool      `json:"isFromAI"`
}

type BargainSession struct {
	ID           string           `json:"id"`
	ProductID    string           `json:"productId"`
	PublisherID  string           `json:"publisherId"`
	BargainerID  string           `json:"bargainerId"`
	PublishPrice int              `json:"publishPrice"`
	TargetPrice  int              `json:"targetPrice"`
	CurrentPrice int              `json:"currentPrice"`
	Status       string           `json:"status"`
	FinalPrice   *int             `json:"finalPrice"`
	CreatedAt    time.Time        `json:"createdAt"`
	CompletedAt  *time.Time       `json:"completedAt"`
	Messages     []BargainMessage `json:"messages,omitempty"`
}

type CreateBargainRequest struct {
	ProductID    string `json:"productId" validate:"required"`
	PublisherID  string `json:"publisherId" validate:"required"`
	PublishPrice int    `json:"publishPrice" validate:"required,gt=0"`
	TargetPrice  int    `json:"targetPrice" validate:"required,gt=0"`
}

type CreateBargainResponse struct {
	SessionID string         `json:"sessionId"`
	Session   BargainSession `json:"session"`
}

// Purchase is a completed bargain joined with its product.
type Purchase struct {
	Session BargainSession `json:"session"`
	Product Product        `json:"product"`
}

// StreamEvent is one frame of the bargain SSE stream. Exactly one payload
// field set is meaningful for each type.
type StreamEvent struct {
	Type string          `json:"type"` // message | status | error | complete
	Data StreamEventData `json:"data"`
}

type StreamEventData struct {
	ID         string `json:"id,omitempty"`
	SenderID   string `json:"senderId,omitempty"`
	SenderRole string `json:"senderRole,omitempty"`
	Content    string `json:"content,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Status     string `json:"status,omitempty"`
	FinalPrice *int   `json:"finalPrice,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Error is the common error envelope.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type ErrorCode string
