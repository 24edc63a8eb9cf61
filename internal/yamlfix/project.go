package yamlfix

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mend/internal/diag"
	"mend/internal/source"
)

var projectRemovedFields = []struct {
	key  string
	code diag.Code
}{
	{"log-path", diag.PrjLogPath},
	{"target-path", diag.PrjTargetPath},
}

var projectRenamedFields = []struct {
	old  string
	repl string
	code diag.Code
}{
	{"data-paths", "seed-paths", diag.PrjDataPaths},
	{"source-paths", "model-paths", diag.PrjSourcePaths},
}

// dropDeprecatedProjectKeys removes log-path/target-path and renames
// data-paths/source-paths in dbt_project.yml. Когда новое имя уже занято,
// значения старого добавляются к нему.
func dropDeprecatedProjectKeys(f *source.File, opts Options) ([]byte, []finding) {
	doc, ok := parseDoc(f.Content)
	if !ok {
		return nil, nil
	}
	root := doc.Content[0]
	if !isMap(root) {
		return nil, nil
	}

	var found []finding
	for _, field := range projectRemovedFields {
		if mapGet(root, field.key) == nil {
			continue
		}
		sp := fieldSpan(f, root, field.key)
		mapDelete(root, field.key)
		found = append(found, finding{
			code: field.code,
			span: sp,
			msg:  fmt.Sprintf("Removed the deprecated field '%s'", field.key),
		})
	}

	for _, field := range projectRenamedFields {
		old := mapGet(root, field.old)
		if old == nil {
			continue
		}
		sp := fieldSpan(f, root, field.old)
		if existing := mapGet(root, field.repl); existing == nil {
			mapRenameKey(root, field.old, field.repl)
			found = append(found, finding{
				code: field.code,
				span: sp,
				msg:  fmt.Sprintf("Renamed the deprecated field '%s' to '%s'", field.old, field.repl),
			})
		} else {
			if isSeq(existing) && isSeq(old) {
				existing.Content = append(existing.Content, old.Content...)
			}
			mapDelete(root, field.old)
			found = append(found, finding{
				code: field.code,
				span: sp,
				msg:  fmt.Sprintf("Added the config of the deprecated field '%s' to '%s'", field.old, field.repl),
			})
		}
	}

	if len(found) == 0 {
		return nil, nil
	}
	out, err := encodeDoc(f.Content, doc)
	if err != nil {
		return nil, nil
	}
	return out, found
}

// prefixPlusConfig prefixes config keys nested under the resource sections
// of dbt_project.yml with "+", so they cannot be confused with directory
// names. Directory keys are told apart by checking the path on disk.
func prefixPlusConfig(f *source.File, opts Options) ([]byte, []finding) {
	doc, ok := parseDoc(f.Content)
	if !ok {
		return nil, nil
	}
	root := doc.Content[0]
	if !isMap(root) {
		return nil, nil
	}
	projectName := scalarValue(mapGet(root, "name"))
	packagesDir := opts.PackagesDir
	if packagesDir == "" {
		packagesDir = "dbt_packages"
	}

	var found []finding
	for _, section := range resourceSections {
		sectionMap := mapGet(root, section)
		if !isMap(sectionMap) {
			continue
		}
		cfgFields := configFields(section)
		for _, k := range mapKeys(sectionMap) {
			v := mapGet(sectionMap, k)
			switch {
			case k == projectName && projectName != "":
				prefixPlusWalk(f, v, filepath.Join(opts.ProjectDir, section), cfgFields, &found)
			case hasField(cfgFields, trimPlus(k)) && k[0] != '+':
				sp := fieldSpan(f, sectionMap, k)
				mapRenameKey(sectionMap, k, "+"+k)
				found = append(found, finding{
					code: diag.PrjPlusPrefix,
					span: sp,
					msg:  fmt.Sprintf("Added '+' in front of top level config '%s'", k),
				})
			default:
				pkgRoot := filepath.Join(opts.ProjectDir, packagesDir, k, section)
				prefixPlusWalk(f, v, pkgRoot, cfgFields, &found)
			}
		}
	}

	if len(found) == 0 {
		return nil, nil
	}
	out, err := encodeDoc(f.Content, doc)
	if err != nil {
		return nil, nil
	}
	return out, found
}

// prefixPlusWalk descends a directory-shaped subtree. A key that names a
// config field gets the "+" prefix unless a directory with that name exists
// next to the current path.
func prefixPlusWalk(f *source.File, m *yaml.Node, dir string, cfgFields map[string]struct{}, found *[]finding) {
	if !isMap(m) || !dirExists(dir) {
		return
	}
	for _, k := range mapKeys(m) {
		v := mapGet(m, k)
		if hasField(cfgFields, k) && !dirExists(filepath.Join(dir, k)) {
			sp := fieldSpan(f, m, k)
			mapRenameKey(m, k, "+"+k)
			*found = append(*found, finding{
				code: diag.PrjPlusPrefix,
				span: sp,
				msg:  fmt.Sprintf("Added '+' in front of the nested config '%s'", k),
			})
		} else if isMap(v) {
			prefixPlusWalk(f, v, filepath.Join(dir, k), cfgFields, found)
		}
	}
}

func hasField(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}

func trimPlus(k string) string {
	if len(k) > 0 && k[0] == '+' {
		return k[1:]
	}
	return k
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
