package domain

// RoomType is the root of the inventory graph. The ID comes from the
// TravelLine payload and is stable across sync cycles; children are owned
// by the parent and replaced together with it.
type RoomType struct {
	ID           string
	Name         string
	Description  *string
	SizeValue    *float64
	CategoryCode *string
	CategoryName *string
	Position     *int

	Images     []Image
	Amenities  []string // codes, duplicates preserved as sent upstream
	Address    *Address
	Occupancy  *Occupancy
	Placements []Placement
}

// Image position defines display order, lowest first. Ties keep arrival order.
type Image struct {
	URL      string
	Position int
}

type Address struct {
	PostalCode  *string
	CountryCode *string
	Region      *string
	RegionID    *string
	CityName    *string
	CityID      *string
	AddressLine *string
	Latitude    *float64
	Longitude   *float64
	Remark      *string
}

type Occupancy struct {
	AdultBed        int
	ExtraBed        int
	ChildWithoutBed int
}

type Placement struct {
	Kind   string
	Count  int
	MinAge *int
	MaxAge *int
}
