package yamlfix

import (
	"bytes"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"mend/internal/diag"
	"mend/internal/source"
)

func parseDoc(content []byte) (*yaml.Node, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, false
	}
	return &doc, true
}

func encodeDoc(orig []byte, doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return restoreBlankLines(orig, buf.Bytes()), nil
}

// Окно поиска строки-якоря при восстановлении пустых строк.
const blankLookahead = 24

// restoreBlankLines re-inserts the blank-line runs of orig into enc. The
// yaml encoder drops every blank line; untouched lines come back verbatim,
// so matching them two-pointer wise puts each run back in front of the line
// it preceded. Lines the rewrite changed simply get no run.
func restoreBlankLines(orig, enc []byte) []byte {
	type srcLine struct {
		text   string
		blanks int
	}
	var src []srcLine
	run := 0
	for _, ln := range strings.Split(string(orig), "\n") {
		if strings.TrimSpace(ln) == "" {
			run++
			continue
		}
		src = append(src, srcLine{text: ln, blanks: run})
		run = 0
	}

	encLines := strings.Split(string(enc), "\n")
	out := make([]string, 0, len(encLines))
	j := 0
	for _, ln := range encLines {
		if strings.TrimSpace(ln) != "" {
			for k := j; k < len(src) && k < j+blankLookahead; k++ {
				if src[k].text != ln {
					continue
				}
				for b := 0; b < src[k].blanks; b++ {
					out = append(out, "")
				}
				j = k + 1
				break
			}
		}
		out = append(out, ln)
	}
	return []byte(strings.Join(out, "\n"))
}

func isMap(n *yaml.Node) bool { return n != nil && n.Kind == yaml.MappingNode }
func isSeq(n *yaml.Node) bool { return n != nil && n.Kind == yaml.SequenceNode }

func isScalarKey(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.Value != "<<"
}

// mapGet returns the value node for key, or nil.
func mapGet(m *yaml.Node, key string) *yaml.Node {
	if !isMap(m) {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isScalarKey(m.Content[i]) && m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// mapKeys returns the scalar keys of m in document order.
func mapKeys(m *yaml.Node) []string {
	if !isMap(m) {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isScalarKey(m.Content[i]) {
			keys = append(keys, m.Content[i].Value)
		}
	}
	return keys
}

// mapDelete removes the first pair with the given key and returns both its
// nodes. The key node carries the head comment of the pair; callers that
// move the pair elsewhere reinsert it via mapSetNode so the comment travels.
func mapDelete(m *yaml.Node, key string) (keyNode, value *yaml.Node) {
	if !isMap(m) {
		return nil, nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isScalarKey(m.Content[i]) && m.Content[i].Value == key {
			k, v := m.Content[i], m.Content[i+1]
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return k, v
		}
	}
	return nil, nil
}

// mapSet replaces the value for key, or appends a new pair with a fresh key.
func mapSet(m *yaml.Node, key string, value *yaml.Node) {
	mapSetNode(m, scalarNode(key), value)
}

// mapSetNode is mapSet with a caller-provided key node, комментарии ключа
// сохраняются при переносе.
func mapSetNode(m *yaml.Node, keyNode, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isScalarKey(m.Content[i]) && m.Content[i].Value == keyNode.Value {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, keyNode, value)
}

// mapRenameKey renames key to newKey, keeping the value and position.
func mapRenameKey(m *yaml.Node, key, newKey string) bool {
	if !isMap(m) {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isScalarKey(m.Content[i]) && m.Content[i].Value == key {
			m.Content[i].Value = newKey
			return true
		}
	}
	return false
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func newMapNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// ensureMap returns the mapping under key, creating it when missing.
func ensureMap(m *yaml.Node, key string) *yaml.Node {
	if v := mapGet(m, key); isMap(v) {
		return v
	}
	v := newMapNode()
	mapSet(m, key, v)
	return v
}

func scalarValue(n *yaml.Node) string {
	if n != nil && n.Kind == yaml.ScalarNode {
		return n.Value
	}
	return ""
}

// nodeSpan maps a yaml node position (1-based line/column) to a byte span.
func nodeSpan(f *source.File, n *yaml.Node, length int) source.Span {
	if n == nil || n.Line == 0 {
		return source.Span{File: f.ID}
	}
	var start uint32
	switch {
	case n.Line == 1:
		start = 0
	case n.Line-2 < len(f.LineIdx):
		start = f.LineIdx[n.Line-2] + 1
	default:
		start, _ = safecast.Conv[uint32](len(f.Content))
	}
	if n.Column > 1 {
		col, err := safecast.Conv[uint32](n.Column - 1)
		if err == nil {
			start += col
		}
	}
	end, err := safecast.Conv[uint32](int(start) + length)
	if err != nil || int(end) > len(f.Content) {
		end = start
	}
	return source.Span{File: f.ID, Start: start, End: end}
}

// wholeFileSpan covers the entire content of f.
func wholeFileSpan(f *source.File) source.Span {
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		end = 0
	}
	return source.Span{File: f.ID, Start: 0, End: end}
}

// dropDuplicateKeys removes later occurrences of a repeated mapping key
// anywhere in the document. Первое вхождение побеждает.
func dropDuplicateKeys(f *source.File, opts Options) ([]byte, []finding) {
	doc, ok := parseDoc(f.Content)
	if !ok {
		return nil, nil
	}
	var found []finding
	dedupeNode(f, doc, &found)
	if len(found) == 0 {
		return nil, nil
	}
	out, err := encodeDoc(f.Content, doc)
	if err != nil {
		return nil, nil
	}
	return out, found
}

func dedupeNode(f *source.File, n *yaml.Node, found *[]finding) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			dedupeNode(f, c, found)
		}
	case yaml.MappingNode:
		seen := make(map[string]struct{})
		kept := n.Content[:0]
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if isScalarKey(k) {
				if _, dup := seen[k.Value]; dup {
					*found = append(*found, finding{
						code: diag.YmlDuplicateKey,
						span: nodeSpan(f, k, len(k.Value)),
						msg: fmt.Sprintf("Found duplicate keys: line %d - duplication of key %q in mapping",
							k.Line, k.Value),
					})
					continue
				}
				seen[k.Value] = struct{}{}
			}
			kept = append(kept, k, v)
		}
		n.Content = kept
		for i := 1; i < len(n.Content); i += 2 {
			dedupeNode(f, n.Content[i], found)
		}
	}
}
