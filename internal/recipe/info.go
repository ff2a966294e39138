package recipe

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/naming"
	"github.com/goplus/ceres-recipe/internal/resolve"
)

// PackageName is the name ceres-solver is published under.
const PackageName = formula.PackageName

// PackageInfo is what consumers of the package need to use it.
type PackageInfo struct {
	Name     string          `yaml:"name"`
	Version  string          `yaml:"version"`
	Settings Settings        `yaml:"settings"`
	Options  map[string]bool `yaml:"options"`
	Removed  []string        `yaml:"removed_options,omitempty"`
	Requires []string        `yaml:"requires"`
	ResDirs  []string        `yaml:"resdirs,omitempty"`
	Libs     []string        `yaml:"libs"`
}

// Settings is the platform part of PackageInfo.
type Settings struct {
	OS        string `yaml:"os"`
	Compiler  string `yaml:"compiler,omitempty"`
	Arch      string `yaml:"arch,omitempty"`
	BuildType string `yaml:"build_type,omitempty"`
}

// NewPackageInfo describes the package built from res with opts. The
// resource directory points at the find-script, whose location depends on
// the release series; an unknown series yields a warning and no resdir.
func NewPackageInfo(res resolve.Resolution, opts formula.NormalizedOptions, userChannel string) (PackageInfo, []formula.Warning) {
	plat := res.Platform
	info := PackageInfo{
		Name:    PackageName,
		Version: res.Version.String(),
		Settings: Settings{
			OS:        plat.OS,
			Compiler:  plat.Compiler,
			Arch:      plat.Arch,
			BuildType: plat.BuildType,
		},
		Options: make(map[string]bool),
	}
	for _, name := range opts.Names() {
		info.Options[name] = opts.Enabled(name)
	}
	for _, r := range opts.Removed() {
		info.Removed = append(info.Removed, r.Name)
	}
	for _, r := range res.Deps.Requirements() {
		info.Requires = append(info.Requires, r.Ref(userChannel))
	}

	var warnings []formula.Warning
	if dir, ok := resDir(res.Version.Series()); ok {
		info.ResDirs = []string{dir}
	} else {
		warnings = append(warnings, formula.Warning{
			Kind:    formula.ErrArtifactNotFound,
			Subject: info.Version,
			Message: fmt.Sprintf("no known find-script location for release series %d", res.Version.Series()),
		})
	}

	linkage := formula.LinkageOf(opts.Enabled(formula.OptShared))
	info.Libs = []string{naming.LibraryFileName("ceres", plat.OS, linkage)}
	return info, warnings
}

func resDir(series int) (string, bool) {
	switch {
	case series >= 13:
		return "lib/cmake/Ceres", true
	case series == 11:
		return "share/Ceres", true
	case series == 9:
		return "CMake", true
	}
	return "", false
}

// YAML renders p as a YAML document.
func (p PackageInfo) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
