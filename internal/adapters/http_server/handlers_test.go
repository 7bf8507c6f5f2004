package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tim2004timi/traveline-integration/internal/adapters/http_server"
	"github.com/tim2004timi/traveline-integration/internal/app"
	"github.com/tim2004timi/traveline-integration/internal/domain"
)

type stubRoomRepo struct{ rooms []domain.RoomType }

func (s *stubRoomRepo) ReplaceInventory(ctx context.Context, rooms []domain.RoomType) error {
	s.rooms = rooms
	return nil
}

func (s *stubRoomRepo) GetRoomType(ctx context.Context, id string) (domain.RoomType, error) {
	for _, rt := range s.rooms {
		if rt.ID == id {
			return rt, nil
		}
	}
	return domain.RoomType{}, domain.ErrNotFound
}

func (s *stubRoomRepo) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	return s.rooms, nil
}

type stubFeedbackRepo struct {
	nextID    int64
	feedbacks map[int64]domain.Feedback
	videos    map[string]domain.VideoFeedback
}

func newStubFeedbackRepo() *stubFeedbackRepo {
	return &stubFeedbackRepo{feedbacks: map[int64]domain.Feedback{}, videos: map[string]domain.VideoFeedback{}}
}

func (s *stubFeedbackRepo) CreateFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	s.nextID++
	f.ID = s.nextID
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	s.feedbacks[f.ID] = f
	return f, nil
}

func (s *stubFeedbackRepo) ListFeedbacks(ctx context.Context) ([]domain.Feedback, error) {
	out := make([]domain.Feedback, 0, len(s.feedbacks))
	for _, f := range s.feedbacks {
		out = append(out, f)
	}
	return out, nil
}

func (s *stubFeedbackRepo) GetFeedback(ctx context.Context, id int64) (domain.Feedback, error) {
	f, ok := s.feedbacks[id]
	if !ok {
		return domain.Feedback{}, domain.ErrNotFound
	}
	return f, nil
}

func (s *stubFeedbackRepo) DeleteFeedback(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.feedbacks[id]; !ok {
		return false, nil
	}
	delete(s.feedbacks, id)
	return true, nil
}

func (s *stubFeedbackRepo) CreateVideoFeedback(ctx context.Context, v domain.VideoFeedback) (domain.VideoFeedback, error) {
	s.videos[v.UUID] = v
	return v, nil
}

func (s *stubFeedbackRepo) ListVideoFeedbacks(ctx context.Context) ([]domain.VideoFeedback, error) {
	out := make([]domain.VideoFeedback, 0, len(s.videos))
	for _, v := range s.videos {
		out = append(out, v)
	}
	return out, nil
}

func (s *stubFeedbackRepo) GetVideoFeedbackByUUID(ctx context.Context, uid string) (domain.VideoFeedback, error) {
	v, ok := s.videos[uid]
	if !ok {
		return domain.VideoFeedback{}, domain.ErrNotFound
	}
	return v, nil
}

func (s *stubFeedbackRepo) DeleteVideoFeedback(ctx context.Context, uid string) (bool, error) {
	if _, ok := s.videos[uid]; !ok {
		return false, nil
	}
	delete(s.videos, uid)
	return true, nil
}

type nullStorage struct{}

func (nullStorage) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	return nil
}
func (nullStorage) Get(ctx context.Context, name string) ([]byte, error) { return nil, domain.ErrNotFound }
func (nullStorage) Remove(ctx context.Context, name string) error       { return nil }

func testServer(t *testing.T, rooms []domain.RoomType) *httptest.Server {
	t.Helper()
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Catalog:  app.NewCatalogService(&stubRoomRepo{rooms: rooms}),
		Feedback: app.NewFeedbackService(newStubFeedbackRepo(), nullStorage{}),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := testServer(t, nil)
	resp, body := get(t, ts.URL+"/health/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "running") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestMainRoomTypes_FixedPrice(t *testing.T) {
	size := 24.0
	ts := testServer(t, []domain.RoomType{
		{ID: "rt1", Name: "Standard", SizeValue: &size},
	})

	resp, body := get(t, ts.URL+"/api/main/room-types")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var out []map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0]["price"] != float64(app.DisplayPrice) {
		t.Fatalf("unexpected payload: %s", body)
	}
}

func TestCatalog_BadFilterRejected(t *testing.T) {
	ts := testServer(t, nil)

	resp, _ := get(t, ts.URL+"/api/room-types?size_from=abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type %q", ct)
	}

	resp, _ = get(t, ts.URL+"/api/room-types?sort_by=name")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("sort_by status %d", resp.StatusCode)
	}
}

func TestRoomTypeDetail_NotFound(t *testing.T) {
	ts := testServer(t, nil)
	resp, _ := get(t, ts.URL+"/api/room-types/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestRoomTypeDetail_ETagNotModified(t *testing.T) {
	ts := testServer(t, []domain.RoomType{{ID: "rt1", Name: "Standard"}})

	resp, _ := get(t, ts.URL+"/api/room-types/rt1")
	etag := resp.Header.Get("ETag")
	if resp.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("first read: status %d etag %q", resp.StatusCode, etag)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/room-types/rt1", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp2.StatusCode)
	}
}

func TestFeedbackLifecycle(t *testing.T) {
	ts := testServer(t, nil)

	// reject out-of-range rate
	resp, err := http.Post(ts.URL+"/api/feedbacks", "application/json",
		bytes.NewReader([]byte(`{"text":"bad","rate":6}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("rate 6 status %d", resp.StatusCode)
	}

	// create
	resp, err = http.Post(ts.URL+"/api/feedbacks", "application/json",
		bytes.NewReader([]byte(`{"text":"great stay","rate":5}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var created domain.Feedback
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.ID == 0 {
		t.Fatalf("create: status %d body %+v", resp.StatusCode, created)
	}

	// read back
	resp, body := get(t, ts.URL+"/api/feedbacks/1")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "great stay") {
		t.Fatalf("get: status %d body %s", resp.StatusCode, body)
	}

	// delete twice: true then false
	for i, want := range []bool{true, false} {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/feedbacks/1", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		var out map[string]bool
		json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || out["deleted"] != want {
			t.Fatalf("delete #%d: status %d deleted=%v", i+1, resp.StatusCode, out["deleted"])
		}
	}
}

func TestVideoFeedback_UnknownUUID(t *testing.T) {
	ts := testServer(t, nil)

	resp, _ := get(t, ts.URL+"/api/video-feedbacks/no-such")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get status %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/video-feedbacks/no-such", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	var out map[string]bool
	json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || out["deleted"] {
		t.Fatalf("delete status %d deleted=%v", resp.StatusCode, out["deleted"])
	}
}
