package domain

import "time"

// Feedback is a text review collected through the admin console.
type Feedback struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text" validate:"required"`
	Rate      int       `json:"rate" validate:"min=0,max=5"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VideoFeedback references a video blob kept in object storage; only the
// object name is persisted here.
type VideoFeedback struct {
	UUID      string    `json:"uuid"`
	File      string    `json:"file"`
	Rate      int       `json:"rate" validate:"min=0,max=5"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
