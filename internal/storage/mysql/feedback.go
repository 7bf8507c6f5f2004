package mysql

import (
	"context"
	"database/sql"

	"github.com/tim2004timi/traveline-integration/internal/domain"
)

// FeedbackRepo persists text and video feedback; deletes are idempotent and
// report whether a row was actually removed.
type FeedbackRepo struct{ db *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

func (r *FeedbackRepo) CreateFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	res, err := r.db.ExecContext(ctx, insertFeedbackSQL, f.Text, f.Rate)
	if err != nil {
		return domain.Feedback{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Feedback{}, err
	}
	return r.GetFeedback(ctx, id)
}

func (r *FeedbackRepo) GetFeedback(ctx context.Context, id int64) (domain.Feedback, error) {
	var f domain.Feedback
	err := r.db.QueryRowContext(ctx, selectFeedbackByIDSQL, id).
		Scan(&f.ID, &f.Text, &f.Rate, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Feedback{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Feedback{}, err
	}
	return f, nil
}

func (r *FeedbackRepo) ListFeedbacks(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, listFeedbacksSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.Text, &f.Rate, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FeedbackRepo) DeleteFeedback(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteFeedbackSQL, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *FeedbackRepo) CreateVideoFeedback(ctx context.Context, v domain.VideoFeedback) (domain.VideoFeedback, error) {
	if _, err := r.db.ExecContext(ctx, insertVideoFeedbackSQL, v.UUID, v.File, v.Rate); err != nil {
		return domain.VideoFeedback{}, err
	}
	return r.GetVideoFeedbackByUUID(ctx, v.UUID)
}

func (r *FeedbackRepo) GetVideoFeedbackByUUID(ctx context.Context, uuid string) (domain.VideoFeedback, error) {
	var v domain.VideoFeedback
	err := r.db.QueryRowContext(ctx, selectVideoFeedbackSQL, uuid).
		Scan(&v.UUID, &v.File, &v.Rate, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.VideoFeedback{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.VideoFeedback{}, err
	}
	return v, nil
}

func (r *FeedbackRepo) ListVideoFeedbacks(ctx context.Context) ([]domain.VideoFeedback, error) {
	rows, err := r.db.QueryContext(ctx, listVideoFeedbacksSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VideoFeedback
	for rows.Next() {
		var v domain.VideoFeedback
		if err := rows.Scan(&v.UUID, &v.File, &v.Rate, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *FeedbackRepo) DeleteVideoFeedback(ctx context.Context, uuid string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteVideoFeedbackSQL, uuid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
