package domain

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound marks a normal "no such row" outcome; handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidRating rejects feedback with a rate outside 0..5.
var ErrInvalidRating = errors.New("rating must be between 0 and 5")

type RoomRepository interface {
	// ReplaceInventory swaps the whole RoomType graph inside one transaction:
	// either the new inventory is fully visible afterwards, or the old one
	// stays untouched.
	ReplaceInventory(ctx context.Context, rooms []RoomType) error

	// GetRoomType returns ErrNotFound when the id does not resolve.
	GetRoomType(ctx context.Context, id string) (RoomType, error)
	ListRoomTypes(ctx context.Context) ([]RoomType, error)
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
	ListFeedbacks(ctx context.Context) ([]Feedback, error)
	GetFeedback(ctx context.Context, id int64) (Feedback, error)
	// DeleteFeedback reports false for an unknown id; that is not an error.
	DeleteFeedback(ctx context.Context, id int64) (bool, error)

	CreateVideoFeedback(ctx context.Context, v VideoFeedback) (VideoFeedback, error)
	ListVideoFeedbacks(ctx context.Context) ([]VideoFeedback, error)
	GetVideoFeedbackByUUID(ctx context.Context, uuid string) (VideoFeedback, error)
	DeleteVideoFeedback(ctx context.Context, uuid string) (bool, error)
}

// TravelLineClient fetches the full property content document. Credential
// acquisition (client-credentials exchange plus cache lookaside) is the
// client's own concern.
type TravelLineClient interface {
	GetProperty(ctx context.Context, propertyID string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ObjectStorage holds opaque video blobs keyed by generated object names.
type ObjectStorage interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, name string) error
}

// Read models & queries

// RoomSummary is the listing shape. Price is the fixed display price except
// in similarity results, where it carries the candidate's position value.
type RoomSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       int     `json:"price"`
	AdultBed    *int    `json:"adult_bed"`
	Image       *string `json:"image"`
}

// CatalogItem adds the filterable attributes and the aggregated amenity set.
type CatalogItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Price        int      `json:"price"`
	SizeValue    *float64 `json:"size_value"`
	CategoryCode *string  `json:"category_code"`
	CategoryName *string  `json:"category_name"`
	AdultBed     *int     `json:"adult_bed"`
	Image        *string  `json:"image"`
	Amenities    []string `json:"amenities"`
}

// RoomDetail is a CatalogItem plus the full ordered image list.
type RoomDetail struct {
	CatalogItem
	Images []Image `json:"images"`
}

// CatalogFilter predicates are optional and AND-combined.
type CatalogFilter struct {
	SizeFrom  *float64
	SizeTo    *float64
	Category  *string
	AdultBed  *int
	PriceFrom *int
	PriceTo   *int
	SortBy    string // "" | "price" | "size"
}
