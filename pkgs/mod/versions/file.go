// Package versions reads the dependency-location file the external package
// manager writes next to a build: one entry per resolved dependency with its
// version, install root and relative include/library directories.
package versions

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/goplus/ceres-recipe/formula"
)

type Dependency struct {
	ModuleID    string   `json:"id"`
	Version     string   `json:"version"`
	RootPath    string   `json:"rootpath"`
	IncludeDirs []string `json:"includedirs,omitempty"`
	LibDirs     []string `json:"libdirs,omitempty"`
	Libs        []string `json:"libs,omitempty"`
	Shared      *bool    `json:"shared,omitempty"`
}

type Versions struct {
	ModuleID     string                `json:"id"`
	Dependencies map[string]Dependency `json:"deps"`
}

var _ formula.LocationProvider = (*Versions)(nil)

// Parse decodes a dependency-location file. data, when non-nil, is used
// instead of reading file.
func Parse(file string, data []byte) (*Versions, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewBuffer(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var v Versions

	if err := json.NewDecoder(reader).Decode(&v); err != nil {
		return nil, err
	}

	return &v, nil
}

// Location implements formula.LocationProvider.
func (v *Versions) Location(name string) (formula.DependencyLocation, bool) {
	dep, ok := v.Dependencies[name]
	if !ok {
		return formula.DependencyLocation{}, false
	}
	id := dep.ModuleID
	if id == "" {
		id = name
	}
	return formula.DependencyLocation{
		Name:        id,
		Version:     dep.Version,
		RootPath:    dep.RootPath,
		IncludeDirs: dep.IncludeDirs,
		LibDirs:     dep.LibDirs,
		Libs:        dep.Libs,
		Shared:      dep.Shared,
	}, true
}
