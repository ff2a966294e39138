package formula

import (
	"errors"
	"io"
	"io/fs"
	"slices"
)

// -----------------------------------------------------------------------------

// Project represents the files exported alongside the recipe (patches).
type Project struct {
	DirFS fs.FS
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.DirFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Patch returns the content of "patch-<version>" if the project has one.
func (p *Project) Patch(version string) ([]byte, bool, error) {
	if p == nil || p.DirFS == nil {
		return nil, false, nil
	}
	data, err := p.ReadFile("patch-" + version)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// -----------------------------------------------------------------------------

// BuildResult represents the result of packaging one configuration.
type BuildResult struct {
	warnings  []Warning
	outputDir string
	relocated []string
}

// AddWarning records a non-fatal diagnostic.
func (b *BuildResult) AddWarning(w Warning) {
	b.warnings = append(b.warnings, w)
}

// Warnings returns all warnings collected during the run.
func (b *BuildResult) Warnings() []Warning {
	return slices.Clone(b.warnings)
}

// OutputDir returns the package output root.
func (b *BuildResult) OutputDir() string {
	return b.outputDir
}

// SetOutputDir sets the package output root.
func (b *BuildResult) SetOutputDir(dir string) {
	b.outputDir = dir
}

// AddRelocated records a find-script that was rewritten.
func (b *BuildResult) AddRelocated(path string) {
	b.relocated = append(b.relocated, path)
}

// Relocated returns the rewritten find-scripts.
func (b *BuildResult) Relocated() []string {
	return slices.Clone(b.relocated)
}

// -----------------------------------------------------------------------------
