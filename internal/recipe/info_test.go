package recipe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/resolve"
)

func packageInfo(t *testing.T, version string, raw formula.OptionSet, plat formula.Platform) (PackageInfo, []formula.Warning) {
	t.Helper()
	res, err := resolve.Resolve(version, raw, plat)
	require.NoError(t, err)
	opts, err := res.Normalize("3.3.3")
	require.NoError(t, err)
	return NewPackageInfo(res, opts, "ntc/stable")
}

func TestPackageInfoResDirs(t *testing.T) {
	tests := []struct {
		version string
		resDirs []string
	}{
		{"1.9.0", []string{"CMake"}},
		{"1.11.0", []string{"share/Ceres"}},
		{"1.13.0", []string{"lib/cmake/Ceres"}},
		{"1.14.0", []string{"lib/cmake/Ceres"}},
		{"2.0.0", []string{"lib/cmake/Ceres"}},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			info, warnings := packageInfo(t, tt.version, nil, linuxGCC)
			assert.Empty(t, warnings)
			assert.Equal(t, tt.resDirs, info.ResDirs)
		})
	}
}

func TestPackageInfoUnknownSeries(t *testing.T) {
	for _, version := range []string{"1.10.0", "1.12.0"} {
		info, warnings := packageInfo(t, version, nil, linuxGCC)
		assert.Empty(t, info.ResDirs)
		require.Len(t, warnings, 1)
		assert.ErrorIs(t, warnings[0].Kind, formula.ErrArtifactNotFound)
		assert.Equal(t, version, warnings[0].Subject)
	}
}

func TestPackageInfoLibs(t *testing.T) {
	windows := formula.Platform{OS: "Windows", Compiler: "Visual Studio"}
	tests := []struct {
		name   string
		shared bool
		plat   formula.Platform
		want   string
	}{
		{"linux shared", true, linuxGCC, "libceres.so"},
		{"linux static", false, linuxGCC, "libceres.a"},
		{"windows shared", true, windows, "ceres.lib"},
		{"windows static", false, windows, "ceres.lib"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, _ := packageInfo(t, "1.13.0", formula.OptionSet{formula.OptShared: tt.shared}, tt.plat)
			assert.Equal(t, []string{tt.want}, info.Libs)
		})
	}
}

func TestPackageInfoRequires(t *testing.T) {
	info, _ := packageInfo(t, "1.11.0", formula.OptionSet{
		formula.OptSuiteSparse: true,
		formula.OptOpenBLAS:    true,
	}, linuxGCC)
	assert.Equal(t, []string{
		"glog/[>0.3.1]@ntc/stable",
		"eigen/[>=3.2.0,<3.3.4]@ntc/stable",
		"suitesparse/[>=4.5.0]@ntc/stable",
		"openblas/[>=0.2.20]@ntc/stable",
	}, info.Requires)
	assert.True(t, info.Options[formula.OptSuiteSparse])
	assert.Len(t, info.Options, 7)
	assert.Empty(t, info.Removed)
}

func TestPackageInfoYAML(t *testing.T) {
	info, _ := packageInfo(t, "1.13.0", nil, formula.Platform{OS: "Windows", Compiler: "Visual Studio", Arch: "x86_64"})
	data, err := info.YAML()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, PackageName, got["name"])
	assert.Equal(t, "1.13.0", got["version"])
	assert.Equal(t, []any{"fPIC", "openblas"}, got["removed_options"])
	assert.Equal(t, []any{"lib/cmake/Ceres"}, got["resdirs"])
	assert.Contains(t, string(data), "  os: Windows\n")
}

func TestBuildCache(t *testing.T) {
	dir := t.TempDir()

	cache, err := loadCache(dir)
	require.NoError(t, err)
	_, ok := cache.get("1.13.0", "abc")
	assert.False(t, ok)

	built := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.set("1.13.0", "abc", &buildEntry{PackageDir: "/pkg", Relocated: []string{"/pkg/x.cmake"}, BuildTime: built})
	require.NoError(t, saveCache(dir, cache))

	loaded, err := loadCache(dir)
	require.NoError(t, err)
	entry, ok := loaded.get("1.13.0", "abc")
	require.True(t, ok)
	assert.Equal(t, "/pkg", entry.PackageDir)
	assert.True(t, built.Equal(entry.BuildTime))
	_, ok = loaded.get("1.13.0", "other")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, cacheFile), []byte("{"), 0o644))
	_, err = loadCache(dir)
	assert.Error(t, err)
}
