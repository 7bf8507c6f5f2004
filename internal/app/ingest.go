package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tim2004timi/traveline-integration/internal/adapters/observability"
	"github.com/tim2004timi/traveline-integration/internal/domain"
)

// IngestionService runs one sync cycle: fetch the property document from
// TravelLine (the client handles credential acquisition) and atomically
// replace the stored inventory with the mapped graph.
type IngestionService struct {
	client     domain.TravelLineClient
	repo       domain.RoomRepository
	propertyID string
}

func NewIngestionService(c domain.TravelLineClient, r domain.RoomRepository, propertyID string) *IngestionService {
	return &IngestionService{client: c, repo: r, propertyID: propertyID}
}

// SyncRoomTypes is all-or-nothing apart from individual id-less rows, which
// are skipped inside the mapper. Any upstream or storage failure leaves the
// store at its previous state.
func (s *IngestionService) SyncRoomTypes(ctx context.Context) error {
	doc, err := s.client.GetProperty(ctx, s.propertyID)
	if err != nil {
		return fmt.Errorf("fetch property %s: %w", s.propertyID, err)
	}

	rooms, skipped := mapRoomTypes(doc)
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("room types without id skipped")
	}

	if err := s.repo.ReplaceInventory(ctx, rooms); err != nil {
		return fmt.Errorf("replace inventory: %w", err)
	}

	observability.ObserveIngest(len(rooms))
	log.Info().Int("rooms", len(rooms)).Int("skipped", skipped).Msg("inventory replaced")
	return nil
}

// Run executes one cycle immediately, then re-runs at the fixed interval
// until the context is canceled. A failed cycle is logged and retried only
// by waiting for the next tick; there is no in-cycle retry or backoff.
func (s *IngestionService) Run(ctx context.Context, interval time.Duration) error {
	for {
		if err := s.SyncRoomTypes(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveIngestError()
			log.Error().Err(err).Msg("sync cycle failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
