package configcall

import (
	"strings"
	"testing"

	"mend/internal/diag"
	"mend/internal/source"
)

func runDetect(t *testing.T, content string, opts Options) (*source.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	name := "model.sql"
	if opts.Dialect == DialectPython {
		name = "model.py"
	}
	id := fs.AddVirtual(name, []byte(content))
	f := fs.Get(id)
	bag := diag.NewBag(64)
	Detect(f, diag.BagReporter{Bag: bag}, opts)
	bag.Sort()
	return f, bag
}

func rewrite(t *testing.T, f *source.File, bag *diag.Bag) string {
	t.Helper()
	var edits source.EditList
	for _, d := range bag.Items() {
		for _, fix := range d.Fixes {
			for _, e := range fix.Edits {
				if err := edits.Add(e); err != nil {
					t.Fatalf("Add edit: %v", err)
				}
			}
		}
	}
	return string(edits.Apply(f.Content))
}

func TestDetectTemplateCalls(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     string
		wantLogs int
	}{
		{
			name:     "custom key moves into new meta",
			content:  `{{ config(materialized='table', my_flag='x') }}`,
			want:     `{{ config(materialized='table', meta={"my_flag": 'x'}) }}`,
			wantLogs: 1,
		},
		{
			name:     "reserved keys only, untouched",
			content:  `{{ config(materialized='view', tags=['a']) }}`,
			want:     `{{ config(materialized='view', tags=['a']) }}`,
			wantLogs: 0,
		},
		{
			name:     "merge into existing meta keeps position",
			content:  `{{ config(meta={'team': 'core'}, materialized='table', custom=1) }}`,
			want:     `{{ config(meta={'team': 'core', "custom": 1}, materialized='table') }}`,
			wantLogs: 1,
		},
		{
			name:     "collision overwrites in place",
			content:  `{{ config(meta={'x': 1, 'y': 2}, x=3) }}`,
			want:     `{{ config(meta={'x': 3, 'y': 2}) }}`,
			wantLogs: 1,
		},
		{
			name:     "two custom keys, two records",
			content:  `{{ config(a=1, b=2, materialized='table') }}`,
			want:     `{{ config(materialized='table', meta={"a": 1, "b": 2}) }}`,
			wantLogs: 2,
		},
		{
			name:     "non literal value leaves call verbatim",
			content:  `{{ config(custom=env_var('X')) }}`,
			want:     `{{ config(custom=env_var('X')) }}`,
			wantLogs: 0,
		},
		{
			name:     "call inside comment is ignored",
			content:  `{# {{ config(custom=1) }} #}select 1`,
			want:     `{# {{ config(custom=1) }} #}select 1`,
			wantLogs: 0,
		},
		{
			name:     "positional argument leaves call verbatim",
			content:  `{{ config({'custom': 1}) }}`,
			want:     `{{ config({'custom': 1}) }}`,
			wantLogs: 0,
		},
		{
			name:     "multi line call keeps separator style",
			content:  "{{ config(\n    materialized='table',\n    custom=1\n) }}",
			want:     "{{ config(\n    materialized='table',\n    meta={\"custom\": 1}\n) }}",
			wantLogs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, bag := runDetect(t, tt.content, Options{})
			if got := bag.Len(); got != tt.wantLogs {
				for _, d := range bag.Items() {
					t.Logf("finding: %v %s", d.Code, d.Message)
				}
				t.Fatalf("got %d findings, want %d", got, tt.wantLogs)
			}
			if got := rewrite(t, f, bag); got != tt.want {
				t.Errorf("rewrite:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestDetectTemplateIdempotent(t *testing.T) {
	content := `{{ config(materialized='table', my_flag='x', team='core') }}`
	f, bag := runDetect(t, content, Options{})
	once := rewrite(t, f, bag)

	f2, bag2 := runDetect(t, once, Options{})
	if bag2.Len() != 0 {
		t.Fatalf("second pass produced %d findings on %q", bag2.Len(), once)
	}
	if again := rewrite(t, f2, bag2); again != once {
		t.Errorf("second rewrite changed text: %q -> %q", once, again)
	}
}

func TestDetectPythonConfigCall(t *testing.T) {
	content := "def model(dbt, session):\n    dbt.config(materialized=\"table\", random_config=\"AR\")\n    return None\n"
	f, bag := runDetect(t, content, Options{Dialect: DialectPython})
	if bag.Len() != 1 {
		t.Fatalf("got %d findings, want 1", bag.Len())
	}
	got := rewrite(t, f, bag)
	want := "def model(dbt, session):\n    dbt.config(materialized=\"table\", meta={\"random_config\": \"AR\"})\n    return None\n"
	if got != want {
		t.Errorf("rewrite:\n got %q\nwant %q", got, want)
	}
}

func TestDetectPythonGetChain(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "custom key",
			content: `v = dbt.config.get("random_config")`,
			want:    `v = dbt.config.get("meta").get("random_config")`,
		},
		{
			name:    "custom key with default",
			content: `v = dbt.config.get("random_config", "fallback")`,
			want:    `v = dbt.config.get("meta").get("random_config", "fallback")`,
		},
		{
			name:    "reserved key untouched",
			content: `v = dbt.config.get("materialized")`,
			want:    `v = dbt.config.get("materialized")`,
		},
		{
			name:    "meta access untouched",
			content: `v = dbt.config.get("meta")`,
			want:    `v = dbt.config.get("meta")`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, bag := runDetect(t, tt.content, Options{Dialect: DialectPython})
			if got := rewrite(t, f, bag); got != tt.want {
				t.Errorf("rewrite:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestDetectGetChainLog(t *testing.T) {
	_, bag := runDetect(t, `dbt.config.get("flag")`, Options{Dialect: DialectPython})
	if bag.Len() != 1 {
		t.Fatalf("got %d findings, want 1", bag.Len())
	}
	want := "Updated config.get('flag') to config.get('meta').get('flag')"
	if got := bag.Items()[0].Message; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestDetectStrictReportsUnparsable(t *testing.T) {
	content := `{{ config(custom=ref('m')) }}`
	_, bag := runDetect(t, content, Options{Strict: true})
	if bag.Len() != 1 {
		t.Fatalf("got %d findings, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.CfgUnparsableArgs || d.Severity != diag.SevInfo || d.HasFix() {
		t.Errorf("finding = %+v, want info CfgUnparsableArgs without fix", d)
	}
}

func TestReservedKeyOverride(t *testing.T) {
	opts := Options{Reserved: map[string]struct{}{"only_this": {}}}
	content := `{{ config(only_this=1, materialized='table') }}`
	f, bag := runDetect(t, content, opts)
	got := rewrite(t, f, bag)
	want := `{{ config(only_this=1, meta={"materialized": 'table'}) }}`
	if got != want {
		t.Errorf("rewrite:\n got %q\nwant %q", got, want)
	}
}

func TestSplitArgsAndKeyword(t *testing.T) {
	fs := source.NewFileSet()
	content := `a=1, b=[1, {'k': 2}], c='x,y'`
	id := fs.AddVirtual("args", []byte(content))
	f := fs.Get(id)
	args, ok := splitArgs(f, source.Span{File: f.ID, Start: 0, End: uint32(len(content))})
	if !ok || len(args) != 3 {
		t.Fatalf("splitArgs ok=%v len=%d, want 3", ok, len(args))
	}
	names := []string{"a", "b", "c"}
	for i, a := range args {
		name, _, ok := splitKeyword(f, a.span)
		if !ok || name != names[i] {
			t.Errorf("arg[%d] name = %q ok=%v, want %q", i, name, ok, names[i])
		}
	}
	if !strings.Contains(args[1].text, "{'k': 2}") {
		t.Errorf("nested arg text = %q", args[1].text)
	}
}
