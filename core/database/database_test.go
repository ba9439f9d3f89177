package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteMigrateIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(DatabaseConfig{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "t.db")})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}

	var tables []string
	if err := db.SelectContext(ctx, &tables, `SELECT name FROM sqlite_master WHERE type = ? ORDER BY name`, "table"); err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"events": false, "calendar_connections": false, "notifications": false}
	for _, name := range tables {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("table %s missing", name)
		}
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM events WHERE user_id = ? AND start_time >= ?`
	sqlite := Database{driver: DriverSQLite}
	if got := sqlite.Rebind(q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}
	pg := Database{driver: DriverPostgres}
	if got := pg.Rebind(q); got != `SELECT * FROM events WHERE user_id = $1 AND start_time >= $2` {
		t.Errorf("postgres rebind = %q", got)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := InitDB(DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Error("expected an error for an unsupported driver")
	}
}
