// Package project locates dbt-style project roots, reads the layout a
// project declares (resource paths, installed packages), classifies files by
// path convention, and loads the optional mend.toml tool configuration.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectFileName marks a project root.
const ProjectFileName = "dbt_project.yml"

// ConfigFileName is the optional tool configuration file.
const ConfigFileName = "mend.toml"

// FindProjectFile walks up from startDir to locate dbt_project.yml.
func FindProjectFile(startDir string) (path string, ok bool, err error) {
	return findUp(startDir, ProjectFileName)
}

// FindProjectRoot returns the directory containing dbt_project.yml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	path, ok, err := FindProjectFile(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(path), true, nil
}

// FindConfigFile walks up from startDir to locate mend.toml.
func FindConfigFile(startDir string) (path string, ok bool, err error) {
	return findUp(startDir, ConfigFileName)
}

func findUp(startDir, name string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func pathWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && (rel[2] == '/' || rel[2] == filepath.Separator)
}
