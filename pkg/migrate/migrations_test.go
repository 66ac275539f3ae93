package migrate

import (
	"os"
	"strings"
	"testing"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func TestMigrationsCoverCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var all strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile("migrations/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		all.Write(b)
	}

	sql := all.String()
	for _, table := range []string{"users", "categories", "items", "carts", "cart_items", "orders", "order_items", "addresses"} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Fatalf("no migration creates table %s", table)
		}
	}
	if !strings.Contains(sql, "CREATE TYPE order_status") {
		t.Fatal("order_status enum type not created")
	}
}
