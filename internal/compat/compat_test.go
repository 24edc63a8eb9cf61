package compat

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleTable = `{
  "schema": 1,
  "packages": {
    "dbt-labs/dbt_utils": {"min_version": "1.3.0", "verified": true},
    "calogica/dbt_date": {"min_version": "0.10.1"}
  }
}`

func TestParse(t *testing.T) {
	table, err := Parse([]byte(sampleTable))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	rec, ok := table.Lookup("dbt-labs/dbt_utils")
	if !ok || rec.MinVersion != "1.3.0" || !rec.Verified {
		t.Errorf("Lookup = %+v, %v", rec, ok)
	}
	if _, ok := table.Lookup("nobody/nothing"); ok {
		t.Errorf("unknown package must not resolve")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "nope"},
		{"wrong schema", `{"schema": 2, "packages": {}}`},
		{"missing packages", `{"schema": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); !errors.Is(err, ErrBadTable) {
				t.Errorf("err = %v, want ErrBadTable", err)
			}
		})
	}
}

func TestNamesSorted(t *testing.T) {
	table, err := Parse([]byte(sampleTable))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	names := table.Names()
	if len(names) != 2 || names[0] != "calogica/dbt_date" || names[1] != "dbt-labs/dbt_utils" {
		t.Errorf("Names() = %v", names)
	}
}

func TestLoadThroughCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.json")
	if err := os.WriteFile(path, []byte(sampleTable), 0o644); err != nil {
		t.Fatal(err)
	}
	cache, err := OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCacheAt() error: %v", err)
	}

	first, err := Load(path, cache)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// второй раз читаем уже из кеша
	second, err := Load(path, cache)
	if err != nil {
		t.Fatalf("cached Load() error: %v", err)
	}
	if first.Len() != second.Len() {
		t.Fatalf("table changed across cache round trip: %d vs %d", first.Len(), second.Len())
	}
	for _, name := range first.Names() {
		a, _ := first.Lookup(name)
		b, ok := second.Lookup(name)
		if !ok || a != b {
			t.Errorf("record %q = %+v, want %+v", name, b, a)
		}
	}
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.json")
	if err := os.WriteFile(path, []byte(sampleTable), 0o644); err != nil {
		t.Fatal(err)
	}
	cache, err := OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCacheAt() error: %v", err)
	}

	key := sha256.Sum256([]byte(sampleTable))
	entry := cache.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(entry), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(entry, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path, cache)
	if err != nil {
		t.Fatalf("Load() with corrupt cache error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
}

func TestDefaultTable(t *testing.T) {
	table := Default()
	if table.Len() == 0 {
		t.Fatal("default table is empty")
	}
	rec, ok := table.Lookup("dbt-labs/dbt_utils")
	if !ok || rec.MinVersion == "" {
		t.Fatalf("dbt_utils record = %+v, %v", rec, ok)
	}
}
