package entity

import "time"

// User is an account linked to a SecondMe identity. The access token is the
// credential used for chat-completion calls made on the user's behalf.
type User struct {
	ID           string    `json:"id"`
	SecondMeID   string    `json:"secondmeId"`
	Name         *string   `json:"name"`
	Image        *string   `json:"image"`
	AccessToken  string    `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
