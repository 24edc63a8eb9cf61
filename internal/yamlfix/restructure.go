package yamlfix

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mend/internal/diag"
	"mend/internal/source"
)

// restructureKeys moves misplaced resource keys where the schema wants them:
// config fields under `config`, `meta` merged into `config.meta`, unknown
// keys parked under `config.meta` with a hint when a close match exists.
func restructureKeys(f *source.File, opts Options) ([]byte, []finding) {
	doc, ok := parseDoc(f.Content)
	if !ok {
		return nil, nil
	}
	root := doc.Content[0]
	if !isMap(root) {
		return nil, nil
	}

	var found []finding
	for _, nodeType := range []string{"models", "seeds", "snapshots"} {
		seq := mapGet(root, nodeType)
		if !isSeq(seq) {
			continue
		}
		for _, node := range seq.Content {
			restructureResource(f, node, nodeType, &found)
		}
	}

	// у sources конфиг живёт на уровне таблиц
	if sources := mapGet(root, "sources"); isSeq(sources) {
		for _, src := range sources.Content {
			tables := mapGet(src, "tables")
			if !isSeq(tables) {
				continue
			}
			for _, table := range tables.Content {
				restructureResource(f, table, "tables", &found)
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

// restructureResource rewrites one resource entry and recurses into its
// columns and tests.
func restructureResource(f *source.File, node *yaml.Node, nodeType string, found *[]finding) {
	if !isMap(node) {
		return
	}
	restructureNode(f, node, nodeType, found)

	if columns := mapGet(node, "columns"); isSeq(columns) {
		for _, col := range columns.Content {
			if !isMap(col) {
				continue
			}
			restructureNode(f, col, "columns", found)
			restructureTests(f, col, found)
		}
	}
	restructureTests(f, node, found)
}

func restructureNode(f *source.File, node *yaml.Node, nodeType string, found *[]finding) {
	props := nodeProperties[nodeType]
	cfgFields := configFields(nodeType)
	label := prettyType(nodeType)
	name := scalarValue(mapGet(node, "name"))

	existingMeta := mapGet(node, "meta")

	for _, field := range mapKeys(node) {
		if field == "meta" {
			continue
		}
		if _, ok := props[field]; ok {
			continue
		}

		if _, ok := cfgFields[field]; ok {
			sp := fieldSpan(f, node, field)
			cfg := mapGet(node, "config")
			if isMap(cfg) && mapGet(cfg, field) != nil {
				// значение под config имеет приоритет
				mapDelete(node, field)
				*found = append(*found, finding{
					code: diag.YmlMisplacedKey,
					span: sp,
					msg: fmt.Sprintf("%s '%s' - Field '%s' is already under config, it has been removed from the top level.",
						label, name, field),
				})
				continue
			}
			if !isMap(cfg) {
				cfg = ensureMap(node, "config")
			}
			keyNode, value := mapDelete(node, field)
			mapSetNode(cfg, keyNode, value)
			*found = append(*found, finding{
				code: diag.YmlMisplacedKey,
				span: sp,
				msg:  fmt.Sprintf("%s '%s' - Field '%s' moved under config.", label, name, field),
			})
			continue
		}

		// unknown key: park it under config.meta, hint at likely typos
		msg := fmt.Sprintf("%s '%s' - Field '%s' is not an allowed config - Moved under config.meta.",
			label, name, field)
		if hint := closestMatch(field, cfgFields, props); hint != "" {
			msg = fmt.Sprintf("%s '%s' - Field '%s' is not allowed, but '%s' is. Moved as-is under config.meta but you might want to rename it and move it under config.",
				label, name, field, hint)
		}
		sp := fieldSpan(f, node, field)
		keyNode, value := mapDelete(node, field)
		meta := ensureMap(ensureMap(node, "config"), "meta")
		mapSetNode(meta, keyNode, value)
		*found = append(*found, finding{
			code: diag.YmlUnknownKey,
			span: sp,
			msg:  msg,
		})
	}

	if isMap(existingMeta) && len(existingMeta.Content) > 0 {
		meta := ensureMap(ensureMap(node, "config"), "meta")
		for i := 0; i+1 < len(existingMeta.Content); i += 2 {
			k, v := existingMeta.Content[i], existingMeta.Content[i+1]
			if isScalarKey(k) {
				mapSetNode(meta, k, v)
			}
		}
		mapDelete(node, "meta")
		*found = append(*found, finding{
			code: diag.YmlMisplacedKey,
			span: nodeSpan(f, node, 0),
			msg: fmt.Sprintf("%s '%s' - Moved all the meta fields under config.meta and merged with existing config.meta.",
				label, name),
		})
	}
}

// restructureTests handles dict-form test entries under tests/data_tests.
// Tests never carry meta, and config fields overwrite what is already there.
func restructureTests(f *source.File, node *yaml.Node, found *[]finding) {
	for _, key := range []string{"tests", "data_tests"} {
		seq := mapGet(node, key)
		if !isSeq(seq) {
			continue
		}
		for _, test := range seq.Content {
			if !isMap(test) || len(test.Content) < 2 {
				continue
			}
			testName := test.Content[0].Value
			body := test.Content[1]
			if !isMap(body) {
				continue
			}
			cfgFields := configFields("tests")
			for _, field := range mapKeys(body) {
				if field == "meta" || field == "config" {
					continue
				}
				if _, ok := cfgFields[field]; !ok {
					continue
				}
				sp := fieldSpan(f, body, field)
				cfg := mapGet(body, "config")
				already := isMap(cfg) && mapGet(cfg, field) != nil
				if !isMap(cfg) {
					cfg = ensureMap(body, "config")
				}
				keyNode, value := mapDelete(body, field)
				mapSetNode(cfg, keyNode, value)
				msg := fmt.Sprintf("Test '%s' - Field '%s' moved under config.", testName, field)
				if already {
					msg = fmt.Sprintf("Test '%s' - Field '%s' is already under config, it has been overwritten and removed from the top level.",
						testName, field)
				}
				*found = append(*found, finding{
					code: diag.YmlMisplacedKey,
					span: sp,
					msg:  msg,
				})
			}
		}
	}
}

// restructureOwner moves custom owner fields under the node's config.meta.
func restructureOwner(f *source.File, opts Options) ([]byte, []finding) {
	doc, ok := parseDoc(f.Content)
	if !ok {
		return nil, nil
	}
	root := doc.Content[0]
	if !isMap(root) {
		return nil, nil
	}

	var found []finding
	for _, nodeType := range nodesWithOwner {
		seq := mapGet(root, nodeType)
		if !isSeq(seq) {
			continue
		}
		label := prettyType(nodeType)
		for _, node := range seq.Content {
			owner := mapGet(node, "owner")
			if !isMap(owner) {
				continue
			}
			name := scalarValue(mapGet(node, "name"))
			for _, field := range mapKeys(owner) {
				if _, ok := ownerProperties[field]; ok {
					continue
				}
				sp := fieldSpan(f, owner, field)
				keyNode, value := mapDelete(owner, field)
				meta := ensureMap(ensureMap(node, "config"), "meta")
				mapSetNode(meta, keyNode, value)
				found = append(found, finding{
					code: diag.YmlOwnerProperty,
					span: sp,
					msg: fmt.Sprintf("%s '%s' - Owner field '%s' moved under config.meta.",
						label, name, field),
				})
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

// fieldSpan points at the key node of field inside mapping m. После удаления
// пары позиция берётся из самого mapping.
func fieldSpan(f *source.File, m *yaml.Node, field string) source.Span {
	if isMap(m) {
		for i := 0; i+1 < len(m.Content); i += 2 {
			if isScalarKey(m.Content[i]) && m.Content[i].Value == field {
				return nodeSpan(f, m.Content[i], len(field))
			}
		}
	}
	return nodeSpan(f, m, 0)
}

func prettyType(nodeType string) string {
	singular := strings.TrimSuffix(nodeType, "s")
	if singular == "" {
		return nodeType
	}
	return strings.ToUpper(singular[:1]) + singular[1:]
}
