package app

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/tim2004timi/traveline-integration/internal/domain"
)

// DisplayPrice is the fixed catalog price; real pricing is out of scope for
// this version.
const DisplayPrice = 2700

// SimilarLimit caps the similarity result set.
const SimilarLimit = 10

// CatalogService builds the read-side projections. Every call reads the
// current store state; there is no caching layer here.
type CatalogService struct {
	repo domain.RoomRepository
}

func NewCatalogService(r domain.RoomRepository) *CatalogService {
	return &CatalogService{repo: r}
}

// MainRoomTypes is the summary listing: one row per room type with its
// occupancy adult-bed count and first image, when present.
func (s *CatalogService) MainRoomTypes(ctx context.Context) ([]domain.RoomSummary, error) {
	rooms, err := s.repo.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, rt := range rooms {
		out = append(out, summarize(rt, DisplayPrice))
	}
	return out, nil
}

// CatalogRoomTypes applies the AND of all given filter predicates, then the
// requested sort.
func (s *CatalogService) CatalogRoomTypes(ctx context.Context, f domain.CatalogFilter) ([]domain.CatalogItem, error) {
	rooms, err := s.repo.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	kept := rooms[:0:0]
	for _, rt := range rooms {
		if matches(rt, f) {
			kept = append(kept, rt)
		}
	}
	sortRooms(kept, f.SortBy)

	items := make([]domain.CatalogItem, 0, len(kept))
	for _, rt := range kept {
		items = append(items, catalogItem(rt))
	}
	return items, nil
}

// RoomTypeDetail returns the catalog fields plus the full ordered image list.
func (s *CatalogService) RoomTypeDetail(ctx context.Context, id string) (domain.RoomDetail, error) {
	rt, err := s.repo.GetRoomType(ctx, id)
	if err != nil {
		return domain.RoomDetail{}, err
	}
	return domain.RoomDetail{
		CatalogItem: catalogItem(rt),
		Images:      rt.Images,
	}, nil
}

// SimilarRoomTypes ranks every other room against the base room. Candidates
// with fewer adult beds than the base are excluded outright (a minimum
// capacity floor); the rest sort ascending by the lexicographic tuple
// (adult-bed surplus, size difference, position difference) and the first ten
// are returned. An unknown base id yields an empty result, not an error.
//
// The summaries carry the candidate's own position value in the price field
// rather than the fixed display price. That asymmetry matches the live
// behavior and is kept on purpose.
func (s *CatalogService) SimilarRoomTypes(ctx context.Context, id string) ([]domain.RoomSummary, error) {
	base, err := s.repo.GetRoomType(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.RoomSummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	baseBeds := adultBedOrZero(base)
	baseSize := sizeOrZero(base)
	basePos := positionOrZero(base)

	rooms, err := s.repo.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		rt      domain.RoomType
		surplus int
		dSize   float64
		dPos    int
	}
	var cands []scored
	for _, rt := range rooms {
		if rt.ID == base.ID {
			continue
		}
		beds := adultBedOrZero(rt)
		if beds < baseBeds {
			continue
		}
		cands = append(cands, scored{
			rt:      rt,
			surplus: beds - baseBeds,
			dSize:   math.Abs(sizeOrZero(rt) - baseSize),
			dPos:    abs(positionOrZero(rt) - basePos),
		})
	}

	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.surplus != b.surplus {
			return a.surplus < b.surplus
		}
		if a.dSize != b.dSize {
			return a.dSize < b.dSize
		}
		return a.dPos < b.dPos
	})

	if len(cands) > SimilarLimit {
		cands = cands[:SimilarLimit]
	}
	out := make([]domain.RoomSummary, 0, len(cands))
	for _, c := range cands {
		out = append(out, summarize(c.rt, positionOrZero(c.rt)))
	}
	return out, nil
}

// ---- projection helpers ----

func summarize(rt domain.RoomType, price int) domain.RoomSummary {
	return domain.RoomSummary{
		ID:          rt.ID,
		Name:        rt.Name,
		Description: rt.Description,
		Price:       price,
		AdultBed:    adultBed(rt),
		Image:       firstImage(rt),
	}
}

func catalogItem(rt domain.RoomType) domain.CatalogItem {
	return domain.CatalogItem{
		ID:           rt.ID,
		Name:         rt.Name,
		Description:  rt.Description,
		Price:        DisplayPrice,
		SizeValue:    rt.SizeValue,
		CategoryCode: rt.CategoryCode,
		CategoryName: rt.CategoryName,
		AdultBed:     adultBed(rt),
		Image:        firstImage(rt),
		Amenities:    rt.Amenities,
	}
}

// firstImage picks the lowest-position image; the repository returns images
// already ordered by position then arrival, so the head is the answer.
func firstImage(rt domain.RoomType) *string {
	if len(rt.Images) == 0 {
		return nil
	}
	u := rt.Images[0].URL
	return &u
}

func adultBed(rt domain.RoomType) *int {
	if rt.Occupancy == nil {
		return nil
	}
	n := rt.Occupancy.AdultBed
	return &n
}

func adultBedOrZero(rt domain.RoomType) int {
	if rt.Occupancy == nil {
		return 0
	}
	return rt.Occupancy.AdultBed
}

func sizeOrZero(rt domain.RoomType) float64 {
	if rt.SizeValue == nil {
		return 0
	}
	return *rt.SizeValue
}

func positionOrZero(rt domain.RoomType) int {
	if rt.Position == nil {
		return 0
	}
	return *rt.Position
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ---- filtering & sorting ----

func matches(rt domain.RoomType, f domain.CatalogFilter) bool {
	// Size bounds follow SQL comparison semantics: a missing size never
	// satisfies an active bound.
	if f.SizeFrom != nil && (rt.SizeValue == nil || *rt.SizeValue < *f.SizeFrom) {
		return false
	}
	if f.SizeTo != nil && (rt.SizeValue == nil || *rt.SizeValue > *f.SizeTo) {
		return false
	}
	if f.Category != nil && (rt.CategoryName == nil || *rt.CategoryName != *f.Category) {
		return false
	}
	// Rooms without occupancy have no adult_bed value and cannot match an
	// active equality filter.
	if f.AdultBed != nil && (rt.Occupancy == nil || rt.Occupancy.AdultBed != *f.AdultBed) {
		return false
	}
	// Price is a constant, so the range filter is all-or-nothing.
	if f.PriceFrom != nil && DisplayPrice < *f.PriceFrom {
		return false
	}
	if f.PriceTo != nil && DisplayPrice > *f.PriceTo {
		return false
	}
	return true
}

// sortRooms orders ascending with missing values last, the way the previous
// SQL ORDER BY behaved. "price" orders by the stored display-order value, not
// the computed price.
func sortRooms(rooms []domain.RoomType, sortBy string) {
	switch sortBy {
	case "price":
		sort.SliceStable(rooms, func(i, j int) bool {
			a, b := rooms[i].Position, rooms[j].Position
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a < *b
		})
	case "size":
		sort.SliceStable(rooms, func(i, j int) bool {
			a, b := rooms[i].SizeValue, rooms[j].SizeValue
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a < *b
		})
	}
}
