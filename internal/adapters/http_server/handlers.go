package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tim2004timi/traveline-integration/internal/app"
	"github.com/tim2004timi/traveline-integration/internal/domain"
)

type Handlers struct {
	Catalog  *app.CatalogService
	Feedback *app.FeedbackService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/health/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"TravelLine Integration API is running"}`))
	})

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/main/room-types", h.mainRoomTypes)
		r.Get("/room-types", h.catalogRoomTypes)
		r.Get("/room-types/{id}", h.roomTypeDetail)
		r.Get("/room-types/{id}/similar", h.similarRoomTypes)

		r.Get("/feedbacks", h.listFeedbacks)
		r.Post("/feedbacks", h.createFeedback)
		r.Get("/feedbacks/{id}", h.getFeedback)
		r.Delete("/feedbacks/{id}", h.deleteFeedback)

		r.Get("/video-feedbacks", h.listVideoFeedbacks)
		r.Get("/video-feedbacks/{uuid}", h.getVideoFeedback)
		r.Delete("/video-feedbacks/{uuid}", h.deleteVideoFeedback)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the error taxonomy onto status codes: absent rows are 404,
// rejected input 400, anything else a 500 with the message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidRating):
		writeProblem(w, http.StatusBadRequest, "Invalid Rating", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- catalog ----

func (h *Handlers) mainRoomTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.MainRoomTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) catalogRoomTypes(w http.ResponseWriter, r *http.Request) {
	f, err := parseCatalogFilter(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	out, err := h.Catalog.CatalogRoomTypes(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) roomTypeDetail(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.RoomTypeDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) similarRoomTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.SimilarRoomTypes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, out)
}

func parseCatalogFilter(r *http.Request) (domain.CatalogFilter, error) {
	q := r.URL.Query()
	var f domain.CatalogFilter

	pf := func(key string) (*float64, error) {
		s := q.Get(key)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.New(key + " must be a number")
		}
		return &v, nil
	}
	pi := func(key string) (*int, error) {
		s := q.Get(key)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.New(key + " must be an integer")
		}
		return &v, nil
	}

	var err error
	if f.SizeFrom, err = pf("size_from"); err != nil {
		return f, err
	}
	if f.SizeTo, err = pf("size_to"); err != nil {
		return f, err
	}
	if f.AdultBed, err = pi("adult_bed"); err != nil {
		return f, err
	}
	if f.PriceFrom, err = pi("price_from"); err != nil {
		return f, err
	}
	if f.PriceTo, err = pi("price_to"); err != nil {
		return f, err
	}
	if c := q.Get("category"); c != "" {
		f.Category = &c
	}
	switch sb := q.Get("sort_by"); sb {
	case "", "price", "size":
		f.SortBy = sb
	default:
		return f, errors.New("sort_by must be price or size")
	}
	return f, nil
}

// ---- feedback ----

func (h *Handlers) listFeedbacks(w http.ResponseWriter, r *http.Request) {
	out, err := h.Feedback.Feedbacks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) createFeedback(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
		Rate int    `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON with text and rate")
		return
	}
	f, err := h.Feedback.CreateFeedback(r.Context(), in.Text, in.Rate)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(f)
}

func (h *Handlers) getFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	f, err := h.Feedback.Feedback(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, f)
}

func (h *Handlers) deleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	ok, err := h.Feedback.DeleteFeedback(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"deleted": ok})
}

func (h *Handlers) listVideoFeedbacks(w http.ResponseWriter, r *http.Request) {
	out, err := h.Feedback.VideoFeedbacks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getVideoFeedback(w http.ResponseWriter, r *http.Request) {
	v, err := h.Feedback.VideoFeedback(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, v)
}

func (h *Handlers) deleteVideoFeedback(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Feedback.DeleteVideoFeedback(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"deleted": ok})
}
