package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tim2004timi/traveline-integration/internal/domain"
)

// FeedbackService is plain CRUD over the two feedback kinds plus the video
// blob lifecycle. There is no update-in-place.
type FeedbackService struct {
	repo     domain.FeedbackRepository
	store    domain.ObjectStorage
	validate *validator.Validate
}

func NewFeedbackService(r domain.FeedbackRepository, store domain.ObjectStorage) *FeedbackService {
	return &FeedbackService{repo: r, store: store, validate: validator.New()}
}

func (s *FeedbackService) CreateFeedback(ctx context.Context, text string, rate int) (domain.Feedback, error) {
	f := domain.Feedback{Text: text, Rate: rate}
	if err := s.validate.Struct(f); err != nil {
		return domain.Feedback{}, fmt.Errorf("%w: rate=%d", domain.ErrInvalidRating, rate)
	}
	return s.repo.CreateFeedback(ctx, f)
}

func (s *FeedbackService) Feedbacks(ctx context.Context) ([]domain.Feedback, error) {
	return s.repo.ListFeedbacks(ctx)
}

func (s *FeedbackService) Feedback(ctx context.Context, id int64) (domain.Feedback, error) {
	return s.repo.GetFeedback(ctx, id)
}

// DeleteFeedback reports false for an unknown id; that is a no-op, not an
// error.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteFeedback(ctx, id)
}

// CreateVideoFeedback stores the blob first, then the row. The object name is
// derived from a fresh UUID; the rate defaults to zero as the admin console
// does not collect one for videos.
func (s *FeedbackService) CreateVideoFeedback(ctx context.Context, video []byte) (domain.VideoFeedback, error) {
	uid := uuid.NewString()
	object := fmt.Sprintf("videos/%s.mp4", uid)

	if err := s.store.Put(ctx, object, bytes.NewReader(video), int64(len(video)), "video/mp4"); err != nil {
		return domain.VideoFeedback{}, fmt.Errorf("store video object: %w", err)
	}

	v, err := s.repo.CreateVideoFeedback(ctx, domain.VideoFeedback{UUID: uid, File: object})
	if err != nil {
		// Best effort: do not leave an orphaned blob behind a failed insert.
		if rerr := s.store.Remove(ctx, object); rerr != nil {
			log.Warn().Err(rerr).Str("object", object).Msg("orphaned video object not removed")
		}
		return domain.VideoFeedback{}, err
	}
	return v, nil
}

func (s *FeedbackService) VideoFeedbacks(ctx context.Context) ([]domain.VideoFeedback, error) {
	return s.repo.ListVideoFeedbacks(ctx)
}

func (s *FeedbackService) VideoFeedback(ctx context.Context, uid string) (domain.VideoFeedback, error) {
	return s.repo.GetVideoFeedbackByUUID(ctx, uid)
}

// VideoContent loads the stored blob for a feedback record.
func (s *FeedbackService) VideoContent(ctx context.Context, uid string) ([]byte, error) {
	v, err := s.repo.GetVideoFeedbackByUUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, v.File)
}

// DeleteVideoFeedback removes the blob, then the row. A missing blob does not
// block the row delete; an unknown uuid reports false.
func (s *FeedbackService) DeleteVideoFeedback(ctx context.Context, uid string) (bool, error) {
	v, err := s.repo.GetVideoFeedbackByUUID(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rerr := s.store.Remove(ctx, v.File); rerr != nil {
		log.Warn().Err(rerr).Str("object", v.File).Msg("video object removal failed")
	}
	return s.repo.DeleteVideoFeedback(ctx, uid)
}
