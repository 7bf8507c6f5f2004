package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tim2004timi/traveline-integration/internal/app"
	"github.com/tim2004timi/traveline-integration/internal/domain"
)

type fakeFeedbackRepo struct {
	nextID    int64
	feedbacks map[int64]domain.Feedback
	videos    map[string]domain.VideoFeedback
	createErr error
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{
		feedbacks: map[int64]domain.Feedback{},
		videos:    map[string]domain.VideoFeedback{},
	}
}

func (f *fakeFeedbackRepo) CreateFeedback(ctx context.Context, fb domain.Feedback) (domain.Feedback, error) {
	f.nextID++
	fb.ID = f.nextID
	fb.CreatedAt = time.Now()
	fb.UpdatedAt = fb.CreatedAt
	f.feedbacks[fb.ID] = fb
	return fb, nil
}

func (f *fakeFeedbackRepo) ListFeedbacks(ctx context.Context) ([]domain.Feedback, error) {
	out := make([]domain.Feedback, 0, len(f.feedbacks))
	for _, fb := range f.feedbacks {
		out = append(out, fb)
	}
	return out, nil
}

func (f *fakeFeedbackRepo) GetFeedback(ctx context.Context, id int64) (domain.Feedback, error) {
	fb, ok := f.feedbacks[id]
	if !ok {
		return domain.Feedback{}, domain.ErrNotFound
	}
	return fb, nil
}

func (f *fakeFeedbackRepo) DeleteFeedback(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.feedbacks[id]; !ok {
		return false, nil
	}
	delete(f.feedbacks, id)
	return true, nil
}

func (f *fakeFeedbackRepo) CreateVideoFeedback(ctx context.Context, v domain.VideoFeedback) (domain.VideoFeedback, error) {
	if f.createErr != nil {
		return domain.VideoFeedback{}, f.createErr
	}
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	f.videos[v.UUID] = v
	return v, nil
}

func (f *fakeFeedbackRepo) ListVideoFeedbacks(ctx context.Context) ([]domain.VideoFeedback, error) {
	out := make([]domain.VideoFeedback, 0, len(f.videos))
	for _, v := range f.videos {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeFeedbackRepo) GetVideoFeedbackByUUID(ctx context.Context, uid string) (domain.VideoFeedback, error) {
	v, ok := f.videos[uid]
	if !ok {
		return domain.VideoFeedback{}, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeFeedbackRepo) DeleteVideoFeedback(ctx context.Context, uid string) (bool, error) {
	if _, ok := f.videos[uid]; !ok {
		return false, nil
	}
	delete(f.videos, uid)
	return true, nil
}

type fakeStorage struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.objects[name] = buf.Bytes()
	return nil
}

func (f *fakeStorage) Get(ctx context.Context, name string) ([]byte, error) {
	b, ok := f.objects[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeStorage) Remove(ctx context.Context, name string) error {
	delete(f.objects, name)
	return nil
}

// ---- text feedback ----

func TestCreateFeedback_RatingBounds(t *testing.T) {
	svc := app.NewFeedbackService(newFakeFeedbackRepo(), newFakeStorage())
	ctx := context.Background()

	for _, rate := range []int{0, 5} {
		if _, err := svc.CreateFeedback(ctx, "fine stay", rate); err != nil {
			t.Fatalf("rate %d should be accepted: %v", rate, err)
		}
	}
	for _, rate := range []int{-1, 6} {
		_, err := svc.CreateFeedback(ctx, "fine stay", rate)
		if !errors.Is(err, domain.ErrInvalidRating) {
			t.Fatalf("rate %d should be rejected, got %v", rate, err)
		}
	}
}

func TestCreateFeedback_RequiresText(t *testing.T) {
	svc := app.NewFeedbackService(newFakeFeedbackRepo(), newFakeStorage())
	if _, err := svc.CreateFeedback(context.Background(), "", 3); err == nil {
		t.Fatal("empty text should be rejected")
	}
}

func TestDeleteFeedback_UnknownIsNoop(t *testing.T) {
	repo := newFakeFeedbackRepo()
	svc := app.NewFeedbackService(repo, newFakeStorage())
	ctx := context.Background()

	fb, err := svc.CreateFeedback(ctx, "good", 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := svc.DeleteFeedback(ctx, fb.ID)
	if err != nil || !ok {
		t.Fatalf("first delete: ok=%v err=%v", ok, err)
	}
	ok, err = svc.DeleteFeedback(ctx, fb.ID)
	if err != nil || ok {
		t.Fatalf("repeat delete must report false: ok=%v err=%v", ok, err)
	}
}

// ---- video feedback ----

func TestVideoFeedback_BlobLifecycle(t *testing.T) {
	repo := newFakeFeedbackRepo()
	store := newFakeStorage()
	svc := app.NewFeedbackService(repo, store)
	ctx := context.Background()

	payload := []byte("mp4 bytes")
	v, err := svc.CreateVideoFeedback(ctx, payload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.UUID == "" || v.File == "" {
		t.Fatalf("missing identifiers: %+v", v)
	}
	if len(store.objects) != 1 {
		t.Fatalf("blob not stored: %d objects", len(store.objects))
	}

	got, err := svc.VideoContent(ctx, v.UUID)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("content roundtrip: %q %v", got, err)
	}

	ok, err := svc.DeleteVideoFeedback(ctx, v.UUID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if len(store.objects) != 0 {
		t.Fatal("blob must be removed with the record")
	}

	ok, err = svc.DeleteVideoFeedback(ctx, v.UUID)
	if err != nil || ok {
		t.Fatalf("repeat delete must report false: ok=%v err=%v", ok, err)
	}
}

func TestCreateVideoFeedback_CleansUpOnInsertFailure(t *testing.T) {
	repo := newFakeFeedbackRepo()
	repo.createErr = errors.New("insert failed")
	store := newFakeStorage()
	svc := app.NewFeedbackService(repo, store)

	_, err := svc.CreateVideoFeedback(context.Background(), []byte("mp4"))
	if err == nil {
		t.Fatal("expected insert error")
	}
	if len(store.objects) != 0 {
		t.Fatalf("orphaned blob left behind: %d objects", len(store.objects))
	}
}
