package project

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

// Config is the parsed mend.toml. Every section is optional; zero values
// mean "use the built-in behaviour".
type Config struct {
	Rewrite  RewriteSection  `toml:"rewrite"`
	Yaml     YamlSection     `toml:"yaml"`
	Packages PackagesSection `toml:"packages"`
}

// RewriteSection tunes the config-call rewriter.
type RewriteSection struct {
	// Reserved lists extra argument keys treated as reserved, on top of the
	// built-in set.
	Reserved []string `toml:"reserved"`
	// MetaArg overrides the name of the metadata argument ("meta").
	MetaArg string `toml:"meta-arg"`
}

// YamlSection tunes the YAML patcher.
type YamlSection struct {
	// PassLimit overrides the rewrite pass bound when positive.
	PassLimit int `toml:"pass-limit"`
}

// PackagesSection points at the compatibility table.
type PackagesSection struct {
	// Table is the path of a JSON compatibility table, relative to the
	// config file. Empty means the built-in table.
	Table string `toml:"table"`
}

// ErrBadConfigKey indicates an unknown key in mend.toml.
var ErrBadConfigKey = errors.New("unknown key in mend.toml")

// LoadConfig parses and validates a mend.toml file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: %w: %q", path, ErrBadConfigKey, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFrom locates mend.toml above startDir and parses it. ok is false
// when no config file exists; that is not an error.
func LoadConfigFrom(startDir string) (cfg Config, path string, ok bool, err error) {
	path, ok, err = FindConfigFile(startDir)
	if err != nil || !ok {
		return Config{}, "", ok, err
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		return Config{}, path, true, err
	}
	return cfg, path, true, nil
}

func (c Config) validate() error {
	if c.Rewrite.MetaArg != "" && !isIdent(c.Rewrite.MetaArg) {
		return fmt.Errorf("invalid [rewrite].meta-arg %q: must be an identifier", c.Rewrite.MetaArg)
	}
	for _, key := range c.Rewrite.Reserved {
		if !isIdent(key) {
			return fmt.Errorf("invalid [rewrite].reserved entry %q: must be an identifier", key)
		}
	}
	if c.Yaml.PassLimit < 0 {
		return fmt.Errorf("invalid [yaml].pass-limit %d: must not be negative", c.Yaml.PassLimit)
	}
	if table := strings.TrimSpace(c.Packages.Table); table != c.Packages.Table {
		return fmt.Errorf("invalid [packages].table %q: stray whitespace", c.Packages.Table)
	}
	return nil
}

func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
