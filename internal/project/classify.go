package project

import (
	"path/filepath"
	"strings"
)

// FileKind routes a file to the detector set that can rewrite it.
type FileKind uint8

const (
	// FileOther is anything no detector handles.
	FileOther FileKind = iota
	// FileTemplatedSource is templated SQL, or Python under a model path.
	FileTemplatedSource
	// FileYamlConfig is a schema or project YAML file.
	FileYamlConfig
	// FileDependencyManifest is packages.yml or dependencies.yml.
	FileDependencyManifest
)

func (k FileKind) String() string {
	switch k {
	case FileTemplatedSource:
		return "templated-source"
	case FileYamlConfig:
		return "yaml-config"
	case FileDependencyManifest:
		return "dependency-manifest"
	default:
		return "other"
	}
}

// IsProjectFile reports whether path names a dbt_project.yml, the project's
// own or that of an installed package.
func IsProjectFile(path string) bool {
	return filepath.Base(path) == ProjectFileName
}

// Classify maps a path to its FileKind by convention. The layout is optional:
// without one, Python files are never templated sources because the model
// paths that would qualify them are unknown.
func Classify(layout *Layout, path string) FileKind {
	if IsProjectFile(path) {
		return FileYamlConfig
	}
	base := filepath.Base(path)
	switch base {
	case "packages.yml", "dependencies.yml":
		return FileDependencyManifest
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yml", ".yaml":
		return FileYamlConfig
	case ".sql":
		return FileTemplatedSource
	case ".py":
		if layout != nil && layout.InModelPath(path) {
			return FileTemplatedSource
		}
		return FileOther
	default:
		return FileOther
	}
}
