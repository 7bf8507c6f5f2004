//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/tim2004timi/traveline-integration/internal/domain"
	mysqlrepo "github.com/tim2004timi/traveline-integration/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	// Isolated MySQL; Docker picks a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=traveline",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "traveline")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func sampleRoom(id string) domain.RoomType {
	return domain.RoomType{
		ID:           id,
		Name:         "Room " + id,
		Description:  pstr("desc"),
		SizeValue:    pfloat(24.5),
		CategoryCode: pstr("STD"),
		CategoryName: pstr("Standard"),
		Position:     pint(1),
		Images: []domain.Image{
			{URL: "https://img/" + id + "-a.jpg", Position: 0},
			{URL: "https://img/" + id + "-b.jpg", Position: 1},
		},
		Amenities: []string{"wifi", "tv", "wifi"},
		Address: &domain.Address{
			CityName:  pstr("Sochi"),
			Latitude:  pfloat(43.6),
			Longitude: pfloat(39.73),
		},
		Occupancy: &domain.Occupancy{AdultBed: 2, ExtraBed: 1},
		Placements: []domain.Placement{
			{Kind: "adult", Count: 2},
			{Kind: "child", Count: 1, MinAge: pint(0), MaxAge: pint(6)},
		},
	}
}

// ---------- the tests ----------

func TestRepo_MySQL_ReplaceInventory(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// first generation
	if err := repo.ReplaceInventory(ctx, []domain.RoomType{sampleRoom("rt1"), sampleRoom("rt2")}); err != nil {
		t.Fatalf("ReplaceInventory: %v", err)
	}

	rooms, err := repo.ListRoomTypes(ctx)
	if err != nil {
		t.Fatalf("ListRoomTypes: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(rooms))
	}

	got, err := repo.GetRoomType(ctx, "rt1")
	if err != nil {
		t.Fatalf("GetRoomType: %v", err)
	}
	if got.Name != "Room rt1" || got.SizeValue == nil || *got.SizeValue != 24.5 {
		t.Fatalf("unexpected room: %+v", got)
	}
	if len(got.Images) != 2 || got.Images[0].Position != 0 || got.Images[0].URL != "https://img/rt1-a.jpg" {
		t.Fatalf("images not ordered by position: %+v", got.Images)
	}
	if len(got.Amenities) != 3 {
		t.Fatalf("duplicate amenities must survive storage: %+v", got.Amenities)
	}
	if got.Address == nil || got.Address.CityName == nil || *got.Address.CityName != "Sochi" {
		t.Fatalf("address: %+v", got.Address)
	}
	if got.Occupancy == nil || got.Occupancy.AdultBed != 2 {
		t.Fatalf("occupancy: %+v", got.Occupancy)
	}
	if len(got.Placements) != 2 || got.Placements[1].MaxAge == nil || *got.Placements[1].MaxAge != 6 {
		t.Fatalf("placements: %+v", got.Placements)
	}

	// second generation fully replaces the first, children included
	if err := repo.ReplaceInventory(ctx, []domain.RoomType{sampleRoom("rt3")}); err != nil {
		t.Fatalf("second ReplaceInventory: %v", err)
	}
	rooms, err = repo.ListRoomTypes(ctx)
	if err != nil {
		t.Fatalf("ListRoomTypes: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "rt3" {
		t.Fatalf("stale inventory survived: %+v", rooms)
	}
	if _, err := repo.GetRoomType(ctx, "rt1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rt1 should be gone, got %v", err)
	}

	var orphans int
	if err := db.QueryRow("SELECT COUNT(*) FROM room_type_images WHERE room_type_id <> 'rt3'").Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("cascade left %d orphaned image rows", orphans)
	}
}

func TestRepo_MySQL_EmptyInventory(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.ReplaceInventory(ctx, []domain.RoomType{sampleRoom("rt1")}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.ReplaceInventory(ctx, nil); err != nil {
		t.Fatalf("empty replace: %v", err)
	}
	rooms, err := repo.ListRoomTypes(ctx)
	if err != nil {
		t.Fatalf("ListRoomTypes: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("expected empty inventory, got %d", len(rooms))
	}
}

func TestFeedbackRepo_MySQL_CRUD(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.NewFeedbackRepo(db)
	ctx := context.Background()

	f1, err := repo.CreateFeedback(ctx, domain.Feedback{Text: "great stay", Rate: 5})
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if f1.ID == 0 || f1.CreatedAt.IsZero() {
		t.Fatalf("row not populated: %+v", f1)
	}

	f2, err := repo.CreateFeedback(ctx, domain.Feedback{Text: "ok", Rate: 3})
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}

	list, err := repo.ListFeedbacks(ctx)
	if err != nil {
		t.Fatalf("ListFeedbacks: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d, want 2", len(list))
	}
	// newest first
	if list[0].ID != f2.ID {
		t.Fatalf("expected newest first, got ids %d, %d", list[0].ID, list[1].ID)
	}

	if _, err := repo.GetFeedback(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}

	ok, err := repo.DeleteFeedback(ctx, f1.ID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteFeedback(ctx, f1.ID)
	if err != nil || ok {
		t.Fatalf("repeat delete must report false: ok=%v err=%v", ok, err)
	}

	v, err := repo.CreateVideoFeedback(ctx, domain.VideoFeedback{UUID: "u-1", File: "videos/u-1.mp4"})
	if err != nil {
		t.Fatalf("CreateVideoFeedback: %v", err)
	}
	got, err := repo.GetVideoFeedbackByUUID(ctx, v.UUID)
	if err != nil || got.File != "videos/u-1.mp4" {
		t.Fatalf("GetVideoFeedbackByUUID: %+v %v", got, err)
	}
	ok, err = repo.DeleteVideoFeedback(ctx, v.UUID)
	if err != nil || !ok {
		t.Fatalf("video delete: ok=%v err=%v", ok, err)
	}
}
