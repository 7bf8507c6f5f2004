package app

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tim2004timi/traveline-integration/internal/domain"
)

/********** tiny payload helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// strAt returns the string at path or "". Numeric ids are stringified, since
// the upstream is loose about id types.
func strAt(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func strPtrAt(m map[string]any, path string) *string {
	if s := strAt(m, path); s != "" {
		return &s
	}
	return nil
}

// floatAt accepts float64/int/numeric string.
func floatAt(m map[string]any, path string) *float64 {
	switch v := lookupAny(m, path).(type) {
	case float64:
		f := v
		return &f
	case int:
		f := float64(v)
		return &f
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

func intAt(m map[string]any, path string) *int {
	if f := floatAt(m, path); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

func intAtDefault(m map[string]any, path string, def int) int {
	if n := intAt(m, path); n != nil {
		return *n
	}
	return def
}

func sliceAt(m map[string]any, path string) []map[string]any {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func mapAt(m map[string]any, path string) map[string]any {
	obj, _ := lookupAny(m, path).(map[string]any)
	return obj
}

/********** property document mapper **********/

// mapRoomTypes converts the TravelLine property document into the domain
// graph. Entries without an id are skipped with a warning; everything else
// proceeds. Returns the rooms and the number of skipped entries.
func mapRoomTypes(doc map[string]any) ([]domain.RoomType, int) {
	entries := sliceAt(doc, "roomTypes")
	rooms := make([]domain.RoomType, 0, len(entries))
	skipped := 0

	for _, rt := range entries {
		id := strAt(rt, "id")
		if id == "" {
			log.Warn().Str("name", strAt(rt, "name")).Msg("room type without id skipped")
			skipped++
			continue
		}
		rooms = append(rooms, mapRoomType(id, rt))
	}
	return rooms, skipped
}

func mapRoomType(id string, rt map[string]any) domain.RoomType {
	out := domain.RoomType{
		ID:           id,
		Name:         strAt(rt, "name"),
		Description:  strPtrAt(rt, "description"),
		SizeValue:    floatAt(rt, "size.value"),
		CategoryCode: strPtrAt(rt, "categoryCode"),
		CategoryName: strPtrAt(rt, "categoryName"),
		Position:     intAt(rt, "position"),
	}

	// Image position is the payload index, lowest first.
	for i, img := range sliceAt(rt, "images") {
		url := strAt(img, "url")
		if url == "" {
			continue
		}
		out.Images = append(out.Images, domain.Image{URL: url, Position: i})
	}

	// Amenity codes are taken as sent; duplicates are not collapsed.
	for _, am := range sliceAt(rt, "amenities") {
		if code := strAt(am, "code"); code != "" {
			out.Amenities = append(out.Amenities, code)
		}
	}

	if addr := mapAt(rt, "address"); addr != nil {
		out.Address = &domain.Address{
			PostalCode:  strPtrAt(addr, "postalCode"),
			CountryCode: strPtrAt(addr, "countryCode"),
			Region:      strPtrAt(addr, "region"),
			RegionID:    strPtrAt(addr, "regionId"),
			CityName:    strPtrAt(addr, "cityName"),
			CityID:      strPtrAt(addr, "cityId"),
			AddressLine: strPtrAt(addr, "addressLine"),
			Latitude:    floatAt(addr, "latitude"),
			Longitude:   floatAt(addr, "longitude"),
			Remark:      strPtrAt(addr, "remark"),
		}
	}

	if occ := mapAt(rt, "occupancy"); occ != nil {
		out.Occupancy = &domain.Occupancy{
			AdultBed:        intAtDefault(occ, "adultBed", 0),
			ExtraBed:        intAtDefault(occ, "extraBed", 0),
			ChildWithoutBed: intAtDefault(occ, "childWithoutBed", 0),
		}
	}

	for _, pl := range sliceAt(rt, "placements") {
		out.Placements = append(out.Placements, domain.Placement{
			Kind:   strAt(pl, "kind"),
			Count:  intAtDefault(pl, "count", 0),
			MinAge: intAt(pl, "minAge"),
			MaxAge: intAt(pl, "maxAge"),
		})
	}

	return out
}
