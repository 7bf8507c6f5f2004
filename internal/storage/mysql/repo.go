package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tim2004timi/traveline-integration/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOrNil(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
func intOrNil(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
func f64OrNil(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

// placeholders renders "?,?,?" for an IN clause of n ids.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ReplaceInventory drops the whole inventory graph and inserts the new one in
// a single transaction. A failure anywhere rolls back to the previous state;
// readers never observe a half-replaced inventory.
func (r *Repo) ReplaceInventory(ctx context.Context, rooms []domain.RoomType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteRoomTypesSQL); err != nil {
		return fmt.Errorf("delete room types: %w", err)
	}

	for _, rt := range rooms {
		if _, err := tx.ExecContext(ctx, insertRoomTypeSQL,
			rt.ID,
			rt.Name,
			valStr(rt.Description),
			valF64(rt.SizeValue),
			valStr(rt.CategoryCode),
			valStr(rt.CategoryName),
			valInt(rt.Position),
		); err != nil {
			return fmt.Errorf("insert room type %s: %w", rt.ID, err)
		}

		if err := insertImages(ctx, tx, rt.ID, rt.Images); err != nil {
			return fmt.Errorf("insert images for %s: %w", rt.ID, err)
		}
		if err := insertAmenities(ctx, tx, rt.ID, rt.Amenities); err != nil {
			return fmt.Errorf("insert amenities for %s: %w", rt.ID, err)
		}
		if rt.Address != nil {
			a := rt.Address
			if _, err := tx.ExecContext(ctx, insertAddressSQL,
				rt.ID,
				valStr(a.PostalCode), valStr(a.CountryCode),
				valStr(a.Region), valStr(a.RegionID),
				valStr(a.CityName), valStr(a.CityID),
				valStr(a.AddressLine),
				valF64(a.Latitude), valF64(a.Longitude),
				valStr(a.Remark),
			); err != nil {
				return fmt.Errorf("insert address for %s: %w", rt.ID, err)
			}
		}
		if rt.Occupancy != nil {
			o := rt.Occupancy
			if _, err := tx.ExecContext(ctx, insertOccupancySQL,
				rt.ID, o.AdultBed, o.ExtraBed, o.ChildWithoutBed,
			); err != nil {
				return fmt.Errorf("insert occupancy for %s: %w", rt.ID, err)
			}
		}
		if err := insertPlacements(ctx, tx, rt.ID, rt.Placements); err != nil {
			return fmt.Errorf("insert placements for %s: %w", rt.ID, err)
		}
	}

	return tx.Commit()
}

func insertImages(ctx context.Context, tx *sql.Tx, roomID string, imgs []domain.Image) error {
	if len(imgs) == 0 {
		return nil
	}
	values := make([]string, 0, len(imgs))
	args := make([]any, 0, len(imgs)*3)
	for _, img := range imgs {
		values = append(values, "(?,?,?)")
		args = append(args, roomID, img.URL, img.Position)
	}
	_, err := tx.ExecContext(ctx, insertImagesPrefix+strings.Join(values, ","), args...)
	return err
}

func insertAmenities(ctx context.Context, tx *sql.Tx, roomID string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	values := make([]string, 0, len(codes))
	args := make([]any, 0, len(codes)*2)
	for _, c := range codes {
		values = append(values, "(?,?)")
		args = append(args, roomID, c)
	}
	_, err := tx.ExecContext(ctx, insertAmenitiesPrefix+strings.Join(values, ","), args...)
	return err
}

func insertPlacements(ctx context.Context, tx *sql.Tx, roomID string, ps []domain.Placement) error {
	if len(ps) == 0 {
		return nil
	}
	values := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps)*5)
	for _, p := range ps {
		values = append(values, "(?,?,?,?,?)")
		args = append(args, roomID, p.Kind, p.Count, valInt(p.MinAge), valInt(p.MaxAge))
	}
	_, err := tx.ExecContext(ctx, insertPlacementsPrefix+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) GetRoomType(ctx context.Context, id string) (domain.RoomType, error) {
	row := r.db.QueryRowContext(ctx, selectRoomTypeByIDSQL, id)
	rt, err := scanRoomType(row)
	if err == sql.ErrNoRows {
		return domain.RoomType{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.RoomType{}, err
	}
	rooms := []domain.RoomType{rt}
	if err := r.attachChildren(ctx, rooms); err != nil {
		return domain.RoomType{}, err
	}
	return rooms[0], nil
}

func (r *Repo) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, selectRoomTypesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRoomType(row rowScanner) (domain.RoomType, error) {
	var rt domain.RoomType
	var desc, catCode, catName sql.NullString
	var size sql.NullFloat64
	var pos sql.NullInt64
	if err := row.Scan(&rt.ID, &rt.Name, &desc, &size, &catCode, &catName, &pos); err != nil {
		return domain.RoomType{}, err
	}
	rt.Description = strOrNil(desc)
	rt.SizeValue = f64OrNil(size)
	rt.CategoryCode = strOrNil(catCode)
	rt.CategoryName = strOrNil(catName)
	rt.Position = intOrNil(pos)
	return rt, nil
}

// attachChildren batch-loads all sub-entities for the given parents with one
// query per table instead of one per parent, then assembles in memory.
func (r *Repo) attachChildren(ctx context.Context, rooms []domain.RoomType) error {
	if len(rooms) == 0 {
		return nil
	}
	byID := make(map[string]*domain.RoomType, len(rooms))
	ids := make([]any, 0, len(rooms))
	for i := range rooms {
		byID[rooms[i].ID] = &rooms[i]
		ids = append(ids, rooms[i].ID)
	}
	ph := placeholders(len(ids))

	if err := r.loadImages(ctx, ph, ids, byID); err != nil {
		return err
	}
	if err := r.loadAmenities(ctx, ph, ids, byID); err != nil {
		return err
	}
	if err := r.loadAddresses(ctx, ph, ids, byID); err != nil {
		return err
	}
	if err := r.loadOccupancy(ctx, ph, ids, byID); err != nil {
		return err
	}
	return r.loadPlacements(ctx, ph, ids, byID)
}

func (r *Repo) loadImages(ctx context.Context, ph string, ids []any, byID map[string]*domain.RoomType) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(selectImagesPrefix, ph), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roomID, url string
		var pos sql.NullInt64
		if err := rows.Scan(&roomID, &url, &pos); err != nil {
			return err
		}
		if rt, ok := byID[roomID]; ok {
			rt.Images = append(rt.Images, domain.Image{URL: url, Position: int(pos.Int64)})
		}
	}
	return rows.Err()
}

func (r *Repo) loadAmenities(ctx context.Context, ph string, ids []any, byID map[string]*domain.RoomType) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(selectAmenitiesPrefix, ph), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roomID, code string
		if err := rows.Scan(&roomID, &code); err != nil {
			return err
		}
		if rt, ok := byID[roomID]; ok {
			rt.Amenities = append(rt.Amenities, code)
		}
	}
	return rows.Err()
}

func (r *Repo) loadAddresses(ctx context.Context, ph string, ids []any, byID map[string]*domain.RoomType) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(selectAddressesPrefix, ph), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roomID string
		var postal, country, region, regionID, city, cityID, line, remark sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&roomID, &postal, &country, &region, &regionID, &city, &cityID, &line, &lat, &lon, &remark); err != nil {
			return err
		}
		if rt, ok := byID[roomID]; ok {
			rt.Address = &domain.Address{
				PostalCode:  strOrNil(postal),
				CountryCode: strOrNil(country),
				Region:      strOrNil(region),
				RegionID:    strOrNil(regionID),
				CityName:    strOrNil(city),
				CityID:      strOrNil(cityID),
				AddressLine: strOrNil(line),
				Latitude:    f64OrNil(lat),
				Longitude:   f64OrNil(lon),
				Remark:      strOrNil(remark),
			}
		}
	}
	return rows.Err()
}

func (r *Repo) loadOccupancy(ctx context.Context, ph string, ids []any, byID map[string]*domain.RoomType) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(selectOccupancyPrefix, ph), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roomID string
		var adult, extra, child int
		if err := rows.Scan(&roomID, &adult, &extra, &child); err != nil {
			return err
		}
		if rt, ok := byID[roomID]; ok {
			rt.Occupancy = &domain.Occupancy{AdultBed: adult, ExtraBed: extra, ChildWithoutBed: child}
		}
	}
	return rows.Err()
}

func (r *Repo) loadPlacements(ctx context.Context, ph string, ids []any, byID map[string]*domain.RoomType) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(selectPlacementsPrefix, ph), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roomID, kind string
		var count int
		var minAge, maxAge sql.NullInt64
		if err := rows.Scan(&roomID, &kind, &count, &minAge, &maxAge); err != nil {
			return err
		}
		if rt, ok := byID[roomID]; ok {
			rt.Placements = append(rt.Placements, domain.Placement{
				Kind:   kind,
				Count:  count,
				MinAge: intOrNil(minAge),
				MaxAge: intOrNil(maxAge),
			})
		}
	}
	return rows.Err()
}
