package yamlfix

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"mend/internal/diag"
)

func decodeMap(t *testing.T, text string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := yaml.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("output is not valid yaml: %v\n%s", err, text)
	}
	return m
}

func firstModel(t *testing.T, text string) map[string]any {
	t.Helper()
	m := decodeMap(t, text)
	models, ok := m["models"].([]any)
	if !ok || len(models) == 0 {
		t.Fatalf("no models in %s", text)
	}
	model, ok := models[0].(map[string]any)
	if !ok {
		t.Fatalf("model is not a mapping in %s", text)
	}
	return model
}

func messages(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Message)
	}
	return out
}

func hasMessage(bag *diag.Bag, substr string) bool {
	for _, m := range messages(bag) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestDuplicateKeysFirstWins(t *testing.T) {
	input := "models:\n  - name: a\n    description: one\n    description: two\n"
	out, bag, err := patchString(t, "models/d.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	if model["description"] != "one" {
		t.Errorf("description = %v, want first occurrence", model["description"])
	}
	if !hasMessage(bag, `duplication of key "description" in mapping`) {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestConfigFieldMovedUnderConfig(t *testing.T) {
	input := "models:\n  - name: orders\n    materialized: table\n"
	out, bag, err := patchString(t, "models/m.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	cfg, _ := model["config"].(map[string]any)
	if cfg == nil || cfg["materialized"] != "table" {
		t.Errorf("config = %v", model["config"])
	}
	if _, still := model["materialized"]; still {
		t.Errorf("materialized still at top level: %v", model)
	}
	if !hasMessage(bag, "Model 'orders' - Field 'materialized' moved under config.") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestConfigFieldAlreadyUnderConfig(t *testing.T) {
	input := "models:\n  - name: orders\n    materialized: view\n    config:\n      materialized: table\n"
	out, bag, err := patchString(t, "models/m2.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	cfg, _ := model["config"].(map[string]any)
	if cfg == nil || cfg["materialized"] != "table" {
		t.Errorf("config value must win: %v", model["config"])
	}
	if !hasMessage(bag, "is already under config, it has been removed from the top level") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestUnknownKeyParkedUnderMetaWithHint(t *testing.T) {
	input := "models:\n  - name: orders\n    descripton: typo\n"
	out, bag, err := patchString(t, "models/h.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	cfg, _ := model["config"].(map[string]any)
	meta, _ := cfg["meta"].(map[string]any)
	if meta == nil || meta["descripton"] != "typo" {
		t.Errorf("config.meta = %v", cfg)
	}
	if !hasMessage(bag, "Field 'descripton' is not allowed, but 'description' is.") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestUnknownKeyWithoutHint(t *testing.T) {
	input := "models:\n  - name: orders\n    zzqqxx: 1\n"
	out, bag, err := patchString(t, "models/u.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	cfg, _ := model["config"].(map[string]any)
	meta, _ := cfg["meta"].(map[string]any)
	if meta == nil || meta["zzqqxx"] != 1 {
		t.Errorf("config.meta = %v", cfg)
	}
	if !hasMessage(bag, "Field 'zzqqxx' is not an allowed config - Moved under config.meta.") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestMetaMergedIntoConfigMeta(t *testing.T) {
	input := "models:\n  - name: orders\n    meta:\n      team: core\n    config:\n      meta:\n        tier: 1\n"
	out, bag, err := patchString(t, "models/mm.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	if _, still := model["meta"]; still {
		t.Errorf("meta still at top level: %v", model)
	}
	cfg, _ := model["config"].(map[string]any)
	meta, _ := cfg["meta"].(map[string]any)
	if meta == nil || meta["team"] != "core" || meta["tier"] != 1 {
		t.Errorf("config.meta = %v", meta)
	}
	if !hasMessage(bag, "Moved all the meta fields under config.meta and merged with existing config.meta.") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestSourceTableRestructured(t *testing.T) {
	input := "sources:\n  - name: raw\n    tables:\n      - name: events\n        custom_field: 1\n"
	out, bag, err := patchString(t, "models/src.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	m := decodeMap(t, out)
	src := m["sources"].([]any)[0].(map[string]any)
	table := src["tables"].([]any)[0].(map[string]any)
	cfg, _ := table["config"].(map[string]any)
	meta, _ := cfg["meta"].(map[string]any)
	if meta == nil || meta["custom_field"] != 1 {
		t.Errorf("table config.meta = %v", table)
	}
	if !hasMessage(bag, "Table 'events'") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestColumnTestConfigMoved(t *testing.T) {
	input := "models:\n  - name: orders\n    columns:\n      - name: id\n        tests:\n          - unique:\n              severity: warn\n"
	out, bag, err := patchString(t, "models/ct.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	model := firstModel(t, out)
	col := model["columns"].([]any)[0].(map[string]any)
	test := col["tests"].([]any)[0].(map[string]any)
	body := test["unique"].(map[string]any)
	cfg, _ := body["config"].(map[string]any)
	if cfg == nil || cfg["severity"] != "warn" {
		t.Errorf("test config = %v", body)
	}
	if !hasMessage(bag, "Test 'unique' - Field 'severity' moved under config.") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestOwnerCustomFieldMoved(t *testing.T) {
	input := "groups:\n  - name: finance\n    owner:\n      name: Ana\n      email: ana@example.com\n      slack: fin-alerts\n"
	out, bag, err := patchString(t, "models/g.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	m := decodeMap(t, out)
	group := m["groups"].([]any)[0].(map[string]any)
	owner := group["owner"].(map[string]any)
	if _, still := owner["slack"]; still {
		t.Errorf("slack still under owner: %v", owner)
	}
	if owner["name"] != "Ana" || owner["email"] != "ana@example.com" {
		t.Errorf("allowed owner fields must survive: %v", owner)
	}
	cfg, _ := group["config"].(map[string]any)
	meta, _ := cfg["meta"].(map[string]any)
	if meta == nil || meta["slack"] != "fin-alerts" {
		t.Errorf("config.meta = %v", cfg)
	}
	if !hasMessage(bag, "Group 'finance' - Owner field 'slack' moved under config.meta.") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestClosestMatch(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"descripton", "description"},
		{"materialised", "materialized"},
		{"zzqqxx", ""},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got := closestMatch(tt.field, configFields("models"), nodeProperties["models"])
			if got != tt.want {
				t.Errorf("closestMatch(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestRestructureKeepsBlankLinesAndComments(t *testing.T) {
	input := "version: 2\n\nmodels:\n  - name: a\n    # keep me\n    my_custom: 1 # inline\n\n  - name: b\n    description: plain\n"
	out, bag, err := patchString(t, "models/m3.yml", input, Options{})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	if !hasMessage(bag, "Field 'my_custom'") {
		t.Errorf("messages = %v", messages(bag))
	}
	if !strings.Contains(out, "# keep me") {
		t.Errorf("comment above the moved key lost:\n%s", out)
	}
	if !strings.Contains(out, "# inline") {
		t.Errorf("inline comment on the moved value lost:\n%s", out)
	}
	if !strings.Contains(out, "version: 2\n\nmodels:") {
		t.Errorf("blank line after version dropped:\n%s", out)
	}
	if !strings.Contains(out, "\n\n  - name: b") {
		t.Errorf("blank line between entries dropped:\n%s", out)
	}
}

func TestRestoreBlankLines(t *testing.T) {
	orig := []byte("a: 1\n\nb: 2\n\n\nc: 3\n")
	enc := []byte("a: 1\nb: 2\nc: 3\n")
	got := string(restoreBlankLines(orig, enc))
	if got != string(orig) {
		t.Errorf("got %q, want %q", got, orig)
	}

	// изменённая строка остаётся без пустых строк перед ней
	enc = []byte("a: 1\nrenamed: 2\nc: 3\n")
	got = string(restoreBlankLines(orig, enc))
	want := "a: 1\nrenamed: 2\n\n\nc: 3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
