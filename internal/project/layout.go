package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPackagesInstallPath is where installed packages live unless the
// project declares packages-install-path.
const DefaultPackagesInstallPath = "dbt_packages"

// Layout is a discovered project: its root, declared resource directories
// and the install location of dependency packages. Resource directories of
// installed packages are folded in so classification covers them too.
type Layout struct {
	Root        string // directory containing dbt_project.yml
	ProjectFile string
	Name        string

	// ModelDirs are the model paths, absolute, project first then packages.
	ModelDirs []string
	// ResourceDirs are all declared resource paths, absolute.
	ResourceDirs []string

	// PackagesInstall is the install path as declared, relative to Root.
	PackagesInstall string
	// PackagesDir is the same path made absolute.
	PackagesDir string
}

// projectPaths mirrors the path keys of dbt_project.yml. The deprecated
// spellings are read too so a project that still carries them classifies the
// same before and after it is rewritten.
type projectPaths struct {
	Name                string   `yaml:"name"`
	ModelPaths          []string `yaml:"model-paths"`
	SourcePaths         []string `yaml:"source-paths"`
	SeedPaths           []string `yaml:"seed-paths"`
	DataPaths           []string `yaml:"data-paths"`
	SnapshotPaths       []string `yaml:"snapshot-paths"`
	AnalysisPaths       []string `yaml:"analysis-paths"`
	MacroPaths          []string `yaml:"macro-paths"`
	TestPaths           []string `yaml:"test-paths"`
	PackagesInstallPath string   `yaml:"packages-install-path"`
}

// DiscoverLayout walks up from startDir to the project file and reads the
// declared layout. ok is false when no project file exists above startDir.
func DiscoverLayout(startDir string) (*Layout, bool, error) {
	projectFile, ok, err := FindProjectFile(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	layout, err := LoadLayout(projectFile)
	if err != nil {
		return nil, true, err
	}
	return layout, true, nil
}

// LoadLayout reads the project file at projectFile and resolves its resource
// directories, including those of installed packages.
func LoadLayout(projectFile string) (*Layout, error) {
	root := filepath.Dir(projectFile)
	paths, err := readProjectPaths(projectFile)
	if err != nil {
		return nil, err
	}

	install := paths.PackagesInstallPath
	if install == "" {
		install = DefaultPackagesInstallPath
	}
	layout := &Layout{
		Root:            root,
		ProjectFile:     projectFile,
		Name:            paths.Name,
		PackagesInstall: install,
		PackagesDir:     filepath.Join(root, filepath.FromSlash(install)),
	}
	layout.addPaths(root, paths)

	pkgRoots, err := installedPackageRoots(layout.PackagesDir)
	if err != nil {
		return nil, err
	}
	for _, pkgRoot := range pkgRoots {
		pkgPaths, err := readProjectPaths(filepath.Join(pkgRoot, ProjectFileName))
		if err != nil {
			// сломанный пакет не валит обнаружение проекта
			continue
		}
		layout.addPaths(pkgRoot, pkgPaths)
	}
	return layout, nil
}

func (l *Layout) addPaths(base string, paths projectPaths) {
	models := fallback(paths.ModelPaths, paths.SourcePaths, "models")
	seeds := fallback(paths.SeedPaths, paths.DataPaths, "seeds")

	for _, p := range models {
		l.ModelDirs = append(l.ModelDirs, filepath.Join(base, filepath.FromSlash(p)))
	}
	for _, group := range [][]string{
		models,
		seeds,
		fallback(paths.SnapshotPaths, nil, "snapshots"),
		fallback(paths.AnalysisPaths, nil, "analyses"),
		fallback(paths.MacroPaths, nil, "macros"),
		fallback(paths.TestPaths, nil, "tests"),
	} {
		for _, p := range group {
			l.ResourceDirs = append(l.ResourceDirs, filepath.Join(base, filepath.FromSlash(p)))
		}
	}
}

// fallback picks the modern key, then the deprecated one, then the default.
func fallback(modern, legacy []string, def string) []string {
	if len(modern) > 0 {
		return modern
	}
	if len(legacy) > 0 {
		return legacy
	}
	return []string{def}
}

func readProjectPaths(path string) (projectPaths, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return projectPaths{}, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var paths projectPaths
	if err := yaml.Unmarshal(data, &paths); err != nil {
		return projectPaths{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	return paths, nil
}

// installedPackageRoots lists subdirectories of packagesDir that carry their
// own project file. A missing install directory is not an error.
func installedPackageRoots(packagesDir string) ([]string, error) {
	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %q: %w", packagesDir, err)
	}
	var roots []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(packagesDir, e.Name())
		if _, err := os.Stat(filepath.Join(candidate, ProjectFileName)); err == nil {
			roots = append(roots, candidate)
		}
	}
	return roots, nil
}

// InModelPath reports whether path sits under one of the model directories.
func (l *Layout) InModelPath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range l.ModelDirs {
		if pathWithin(dir, abs) {
			return true
		}
	}
	return false
}
