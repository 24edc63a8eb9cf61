package semver

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Version
	}{
		{"full release", "1.4.0", Version{Major: 1, Minor: 4}},
		{"missing patch", "1.2", Version{Major: 1, Minor: 2}},
		{"major only", "2", Version{Major: 2}},
		{"v prefix", "v1.0.3", Version{Major: 1, Patch: 3}},
		{"pre-release", "1.0.0-rc.1", Version{Major: 1, Pre: "rc.1"}},
		{"build metadata ignored", "1.0.0+build.5", Version{Major: 1}},
		{"whitespace trimmed", "  0.9.1 ", Version{Minor: 9, Patch: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3.4", "1.x.0", "1.0.0-"} {
		if _, err := Parse(input); !errors.Is(err, ErrBadVersion) {
			t.Errorf("Parse(%q): expected ErrBadVersion, got %v", input, err)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "1.2.0", "1.2.0", 0},
		{"patch ordering", "1.2.0", "1.2.1", -1},
		{"minor ordering", "1.2.9", "1.4.0", -1},
		{"major ordering", "2.0.0", "1.9.9", 1},
		{"pre-release below release", "1.0.0-rc.1", "1.0.0", -1},
		{"numeric pre below alpha pre", "1.0.0-2", "1.0.0-rc", -1},
		{"numeric pre compared numerically", "1.0.0-rc.2", "1.0.0-rc.10", -1},
		{"shorter pre sorts first", "1.0.0-rc", "1.0.0-rc.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.a)
			if err != nil {
				t.Fatal(err)
			}
			b, err := Parse(tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := b.Compare(a); got != -tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	v := Version{Major: 1, Minor: 4, Pre: "beta.2"}
	if got := v.String(); got != "1.4.0-beta.2" {
		t.Errorf("String() = %q", got)
	}
}
