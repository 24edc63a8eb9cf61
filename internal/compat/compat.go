// Package compat holds the package compatibility table: for every known hub
// package, the minimum version that parses under the portable engine. The
// table is loaded once per run from a static JSON file and is immutable
// afterwards; parsed tables are cached on disk keyed by the source digest.
package compat

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// Record describes one package in the table.
type Record struct {
	// MinVersion is the lowest compatible release, e.g. "1.3.0".
	MinVersion string `json:"min_version" msgpack:"min_version"`
	// Verified is set for packages whose compatibility was checked by hand
	// rather than derived from parse conformance runs.
	Verified bool `json:"verified,omitempty" msgpack:"verified"`
}

// Table maps package names (publisher/name) to their records.
type Table struct {
	records map[string]Record
}

// ErrBadTable is returned for table files that do not match the schema.
var ErrBadTable = errors.New("malformed compatibility table")

type tableJSON struct {
	Schema   int               `json:"schema"`
	Packages map[string]Record `json:"packages"`
}

const tableSchema = 1

// Lookup returns the record for a package name.
func (t *Table) Lookup(name string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[name]
	return rec, ok
}

// Len returns the number of known packages.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Names returns the known package names, sorted.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.records))
	for name := range t.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse decodes a table from its JSON form.
func Parse(data []byte) (*Table, error) {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	if raw.Schema != tableSchema {
		return nil, fmt.Errorf("%w: unsupported schema %d", ErrBadTable, raw.Schema)
	}
	if raw.Packages == nil {
		return nil, fmt.Errorf("%w: missing packages", ErrBadTable)
	}
	return &Table{records: raw.Packages}, nil
}

// Load reads a table from path, going through the disk cache when one is
// given. Cache misses and corrupt cache entries fall back to a fresh parse.
func Load(path string, cache *DiskCache) (*Table, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the user's config
	if err != nil {
		return nil, err
	}
	key := sha256.Sum256(data)

	if cache != nil {
		var payload tablePayload
		if ok, err := cache.Get(key, &payload); err == nil && ok {
			if t := payloadToTable(&payload); t != nil {
				return t, nil
			}
		}
	}

	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		// ошибка кеша не мешает запуску
		_ = cache.Put(key, tableToPayload(t))
	}
	return t, nil
}

// Default returns the built-in table used when no table path is configured.
func Default() *Table {
	return &Table{records: map[string]Record{
		"dbt-labs/dbt_utils":             {MinVersion: "1.3.0", Verified: true},
		"dbt-labs/audit_helper":          {MinVersion: "0.12.1", Verified: true},
		"dbt-labs/codegen":               {MinVersion: "0.13.1", Verified: true},
		"dbt-labs/dbt_project_evaluator": {MinVersion: "1.0.0"},
		"dbt-labs/metrics":               {MinVersion: "1.6.0"},
		"dbt-labs/snowplow":              {MinVersion: "0.16.0"},
		"calogica/dbt_expectations":      {MinVersion: "0.10.4"},
		"calogica/dbt_date":              {MinVersion: "0.10.1"},
		"brooklyn-data/dbt_artifacts":    {MinVersion: "2.6.2"},
		"fivetran/fivetran_utils":        {MinVersion: "0.4.10"},
	}}
}
