package entity

import (
	"time"

	"duoduo-bargain/internal/domain/value"
)

// BargainSession is one negotiation between a bargainer and a publisher over
// a product. CurrentPrice only ever ratchets down from PublishPrice toward
// TargetPrice while the session is negotiating; FinalPrice is set exactly
// when the session completes.
type BargainSession struct {
	ID           string              `json:"id"`
	ProductID    string              `json:"product_id"`
	PublisherID  string              `json:"publisher_id"`
	BargainerID  string              `json:"bargainer_id"`
	PublishPrice int                 `json:"publish_price"`
	TargetPrice  int                 `json:"target_price"`
	CurrentPrice int                 `json:"current_price"`
	Status       value.BargainStatus `json:"status"`
	FinalPrice   *int                `json:"final_price"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at"`

	Messages []BargainMessage `json:"messages,omitempty"`
}

// BargainMessage is one utterance in a session's append-only log, ordered by
// Timestamp ascending.
type BargainMessage struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"session_id"`
	SenderID   string           `json:"sender_id"`
	SenderRole value.SenderRole `json:"sender_role"`
	Content    string           `json:"content"`
	Timestamp  time.Time        `json:"timestamp"`
	IsFromAI   bool             `json:"is_from_ai"`
}
