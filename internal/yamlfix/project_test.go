package yamlfix

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProjectDeprecatedKeysRemoved(t *testing.T) {
	input := "name: shop\nlog-path: custom_logs\ntarget-path: out\nmodel-paths: [\"models\"]\n"
	out, bag, err := patchString(t, "dbt_project.yml", input, Options{Project: true})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	m := decodeMap(t, out)
	if _, ok := m["log-path"]; ok {
		t.Errorf("log-path survived: %v", m)
	}
	if _, ok := m["target-path"]; ok {
		t.Errorf("target-path survived: %v", m)
	}
	if !hasMessage(bag, "Removed the deprecated field 'log-path'") ||
		!hasMessage(bag, "Removed the deprecated field 'target-path'") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestProjectPathKeysRenamed(t *testing.T) {
	input := "name: shop\nsource-paths: [\"src\"]\ndata-paths: [\"data\"]\nseed-paths: [\"seeds\"]\n"
	out, bag, err := patchString(t, "dbt_project.yml", input, Options{Project: true})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	m := decodeMap(t, out)

	// source-paths переименовывается, model-paths не было
	mp, _ := m["model-paths"].([]any)
	if len(mp) != 1 || mp[0] != "src" {
		t.Errorf("model-paths = %v", m["model-paths"])
	}
	if !hasMessage(bag, "Renamed the deprecated field 'source-paths' to 'model-paths'") {
		t.Errorf("messages = %v", messages(bag))
	}

	// data-paths вливается в существующий seed-paths
	sp, _ := m["seed-paths"].([]any)
	if len(sp) != 2 || sp[0] != "seeds" || sp[1] != "data" {
		t.Errorf("seed-paths = %v", m["seed-paths"])
	}
	if !hasMessage(bag, "Added the config of the deprecated field 'data-paths' to 'seed-paths'") {
		t.Errorf("messages = %v", messages(bag))
	}
	if _, ok := m["data-paths"]; ok {
		t.Errorf("data-paths survived: %v", m)
	}
	if _, ok := m["source-paths"]; ok {
		t.Errorf("source-paths survived: %v", m)
	}
}

func TestProjectPlusPrefix(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "models", "staging"), 0o755); err != nil {
		t.Fatal(err)
	}

	input := "name: shop\nmodels:\n  materialized: table\n  shop:\n    staging:\n      materialized: view\n"
	out, bag, err := patchString(t, "dbt_project.yml", input, Options{Project: true, ProjectDir: dir})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	m := decodeMap(t, out)
	models := m["models"].(map[string]any)

	if _, ok := models["+materialized"]; !ok {
		t.Errorf("top level config not prefixed: %v", models)
	}
	shop := models["shop"].(map[string]any)
	staging := shop["staging"].(map[string]any)
	if _, ok := staging["+materialized"]; !ok {
		t.Errorf("nested config not prefixed: %v", staging)
	}
	if !hasMessage(bag, "Added '+' in front of top level config 'materialized'") ||
		!hasMessage(bag, "Added '+' in front of the nested config 'materialized'") {
		t.Errorf("messages = %v", messages(bag))
	}
}

func TestProjectPlusPrefixSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	// каталог с именем конфиг-поля: ключ остаётся путём, не конфигом
	if err := os.MkdirAll(filepath.Join(dir, "models", "schema"), 0o755); err != nil {
		t.Fatal(err)
	}

	input := "name: shop\nmodels:\n  shop:\n    schema:\n      +materialized: view\n"
	out, bag, err := patchString(t, "dbt_project.yml", input, Options{Project: true, ProjectDir: dir})
	if err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	m := decodeMap(t, out)
	shop := m["models"].(map[string]any)["shop"].(map[string]any)
	if _, ok := shop["schema"]; !ok {
		t.Errorf("directory key must keep its name: %v", shop)
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics = %v", messages(bag))
	}
}
