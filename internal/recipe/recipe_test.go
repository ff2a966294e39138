package recipe

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/qiniu/x/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/defs"
	"github.com/goplus/ceres-recipe/internal/env"
	"github.com/goplus/ceres-recipe/pkgs/buildsys"
	"github.com/goplus/ceres-recipe/pkgs/mod/module"
)

const fingerprint = "0123456789abcdef0123456789abcdef01234567"

var linuxGCC = formula.Platform{OS: "Linux", Compiler: "gcc", Arch: "x86_64", BuildType: "Release"}

type fakeFetcher struct {
	synced  []string
	patches []string
	err     error
}

func (f *fakeFetcher) Sync(_ context.Context, remote, ref, dir string) error {
	f.synced = append(f.synced, remote+"@"+ref+" -> "+dir)
	return f.err
}

func (f *fakeFetcher) Apply(_ context.Context, dir string, patch []byte) error {
	f.patches = append(f.patches, string(patch))
	return nil
}

type fakeBuild struct {
	out     string
	used    []string
	applied *buildsys.Definitions
	steps   []string
	failAt  string
	script  string // written under lib/cmake/Ceres on install
}

func (b *fakeBuild) Use(root string) { b.used = append(b.used, root) }
func (b *fakeBuild) Source(string) {}
func (b *fakeBuild) InstallDir(dir string) { b.out = dir }
func (b *fakeBuild) Env(string, string) {}
func (b *fakeBuild) Apply(d *buildsys.Definitions) { b.applied = d }
func (b *fakeBuild) OutputDir() string { return b.out }

func (b *fakeBuild) step(name string) error {
	b.steps = append(b.steps, name)
	if b.failAt == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (b *fakeBuild) Configure(context.Context, ...string) error { return b.step("configure") }
func (b *fakeBuild) Build(context.Context, ...string) error { return b.step("build") }

func (b *fakeBuild) Install(context.Context, ...string) error {
	if err := b.step("install"); err != nil {
		return err
	}
	if b.script == "" {
		return nil
	}
	path := filepath.Join(b.out, "lib", "cmake", "Ceres", "CeresConfig.cmake")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.script), 0o644)
}

func locations() formula.Locations {
	return formula.Locations{
		formula.DepEigen: {Name: formula.DepEigen, Version: "3.3.4", RootPath: "/deps/eigen"},
		formula.DepGlog:  {Name: formula.DepGlog, Version: "0.3.5", RootPath: "/deps/glog"},
	}
}

func dirsFor(t *testing.T, work, config string) env.Dirs {
	t.Helper()
	dirs, err := env.DirsFor(work, module.Version{Path: PackageName, Version: "1.13.0"}, config)
	require.NoError(t, err)
	return dirs
}

func newRecipe(t *testing.T) (*Recipe, *fakeFetcher, *fakeBuild) {
	t.Helper()
	work := t.TempDir()
	fetcher := &fakeFetcher{}
	bs := &fakeBuild{
		script: "set(EIGEN_INCLUDE_DIR /ci/data/eigen/3.3.4/ntc/stable/package/" + fingerprint + "/include/eigen3)\n" +
			"set(glog_DIR /ci/data/glog/0.3.5/ntc/stable/package/" + fingerprint + ")\n",
	}
	r := &Recipe{
		Version:     "1.13.0",
		Platform:    linuxGCC,
		Locations:   locations(),
		Remote:      "https://example.com/ceres-solver",
		UserChannel: "ntc/stable",
		Dirs:        dirsFor(t, work, "test"),
		Fetcher:     fetcher,
		NewBuildSystem: func(dirs env.Dirs, _ formula.Platform) buildsys.BuildSystem {
			bs.out = dirs.Package
			return bs
		},
		Logger: log.New(io.Discard, "", 0),
	}
	return r, fetcher, bs
}

func TestPlan(t *testing.T) {
	r, fetcher, bs := newRecipe(t)
	plan, err := r.Plan()
	require.NoError(t, err)

	assert.Equal(t, "3.3.4", plan.EigenVersion)
	assert.Contains(t, plan.Config(), "glog=0.3.5@/deps/glog eigen=3.3.4@/deps/eigen")
	assert.Contains(t, plan.Args(), "-DBUILD_SHARED_LIBS=TRUE")
	assert.Contains(t, plan.Args(), "-DGLOG_LIBRARY:PATH="+filepath.Join("/deps/glog", "lib", "libglog.so"))
	assert.Equal(t, []string{"glog/[>0.3.1]@ntc/stable", "eigen/[>=3.2.0]@ntc/stable"}, plan.Info.Requires)
	assert.Equal(t, []string{"lib/cmake/Ceres"}, plan.Info.ResDirs)
	assert.Equal(t, []string{"libceres.so"}, plan.Info.Libs)
	assert.Empty(t, plan.Warnings)

	// planning never touches the outside world
	assert.Empty(t, fetcher.synced)
	assert.Empty(t, bs.steps)
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Recipe)
		kind   error
	}{
		{"bad version", func(r *Recipe) { r.Version = "1.13" }, formula.ErrConfiguration},
		{"unknown option", func(r *Recipe) { r.Options = formula.OptionSet{"lapack": true} }, formula.ErrConfiguration},
		{"no eigen", func(r *Recipe) { r.Locations = formula.Locations{} }, formula.ErrMissingDependency},
		{"eigen out of range", func(r *Recipe) { r.Version = "1.12.0" }, formula.ErrConfiguration},
		{"no suitesparse", func(r *Recipe) { r.Options = formula.OptionSet{formula.OptSuiteSparse: true} }, formula.ErrMissingDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fetcher, bs := newRecipe(t)
			tt.modify(r)

			_, _, err := r.Run(context.Background())
			require.ErrorIs(t, err, tt.kind)
			assert.Empty(t, fetcher.synced, "no external call after a configuration error")
			assert.Empty(t, bs.steps)
		})
	}
}

func TestRun(t *testing.T) {
	r, fetcher, bs := newRecipe(t)
	r.Project = &formula.Project{DirFS: fstest.MapFS{
		"patch-1.13.0": {Data: []byte("--- a\n+++ b\n")},
		"patch-1.11.0": {Data: []byte("other")},
	}}

	plan, result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/ceres-solver@1.13.0 -> " + r.Dirs.Source}, fetcher.synced)
	assert.Equal(t, []string{"--- a\n+++ b\n"}, fetcher.patches)
	assert.Equal(t, []string{"/deps/glog", "/deps/eigen"}, bs.used)
	assert.Equal(t, []string{"configure", "build", "install"}, bs.steps)
	assert.Same(t, plan.Definitions, bs.applied)

	assert.Equal(t, r.Dirs.Package, result.OutputDir())
	require.Len(t, result.Relocated(), 1)
	data, err := os.ReadFile(result.Relocated()[0])
	require.NoError(t, err)
	assert.Equal(t, "set(EIGEN_INCLUDE_DIR ${CONAN_EIGEN_ROOT}/include/eigen3)\nset(glog_DIR ${CONAN_GLOG_ROOT})\n", string(data))

	// GLOG_LIBRARY never appears in the script, which is only a warning
	require.Len(t, result.Warnings(), 1)
	assert.ErrorIs(t, result.Warnings()[0].Kind, formula.ErrPatternNotFound)
}

func TestRunWithoutPatch(t *testing.T) {
	r, fetcher, _ := newRecipe(t)
	r.Project = &formula.Project{DirFS: fstest.MapFS{}}
	_, _, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fetcher.patches)
}

func TestRunFailsFast(t *testing.T) {
	for _, step := range []string{"configure", "build", "install"} {
		t.Run(step, func(t *testing.T) {
			r, _, bs := newRecipe(t)
			bs.failAt = step

			_, result, err := r.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, strings.HasPrefix(err.Error(), step+": "), err.Error())
			assert.Equal(t, step, bs.steps[len(bs.steps)-1], "nothing runs after the failing step")
		})
	}

	r, fetcher, bs := newRecipe(t)
	fetcher.err = errors.New("network down")
	_, _, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, bs.steps)
}

func TestRunNoArtifact(t *testing.T) {
	r, _, bs := newRecipe(t)
	bs.script = ""

	_, result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Relocated())
	require.Len(t, result.Warnings(), 1)
	assert.ErrorIs(t, result.Warnings()[0].Kind, formula.ErrArtifactNotFound)
}

func TestRunUsesCache(t *testing.T) {
	r, _, bs := newRecipe(t)
	r.CacheDir = t.TempDir()

	_, first, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, bs.steps, 3)

	_, second, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, bs.steps, 3, "second run is served from the cache")
	assert.Equal(t, first.OutputDir(), second.OutputDir())
	assert.Equal(t, first.Relocated(), second.Relocated())

	// another configuration is built
	r.Options = formula.OptionSet{formula.OptShared: false}
	r.Dirs = dirsFor(t, t.TempDir(), "static")
	_, _, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, bs.steps, 6)

	// Force ignores the cache
	r.Force = true
	_, _, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, bs.steps, 9)
}

func TestRunCacheTracksLocations(t *testing.T) {
	r, _, bs := newRecipe(t)
	r.CacheDir = t.TempDir()

	_, _, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, bs.steps, 3)

	tests := []struct {
		name   string
		modify func(loc *formula.DependencyLocation)
	}{
		{"glog version", func(loc *formula.DependencyLocation) { loc.Version = "0.4.0" }},
		{"glog root", func(loc *formula.DependencyLocation) { loc.RootPath = "/other/glog" }},
	}
	for i, tt := range tests {
		locs := locations()
		glog := locs[formula.DepGlog]
		tt.modify(&glog)
		locs[formula.DepGlog] = glog
		r.Locations = locs

		_, _, err := r.Run(context.Background())
		require.NoError(t, err, tt.name)
		assert.Len(t, bs.steps, 3*(i+2), "%s change rebuilds", tt.name)
	}

	// an openblas location only counts once suitesparse links against it
	locs := locations()
	locs[formula.DepOpenBLAS] = formula.DependencyLocation{Name: formula.DepOpenBLAS, Version: "0.2.20", RootPath: "/deps/ob"}
	r.Locations = locs
	plan, err := r.Plan()
	require.NoError(t, err)
	assert.NotContains(t, plan.Config(), "/deps/ob")

	r.Options = formula.OptionSet{formula.OptSuiteSparse: true}
	locs[formula.DepSuiteSparse] = formula.DependencyLocation{Name: formula.DepSuiteSparse, Version: "4.5.5", RootPath: "/deps/ss"}
	plan, err = r.Plan()
	require.NoError(t, err)
	assert.Contains(t, plan.Config(), "suitesparse=4.5.5@/deps/ss")
	assert.Contains(t, plan.Config(), "openblas=0.2.20@/deps/ob")
}

func TestPlanRemovedOptions(t *testing.T) {
	r, _, _ := newRecipe(t)
	r.Version = "1.11.0"
	r.Platform = formula.Platform{OS: "Windows", Compiler: "Visual Studio", Arch: "x86_64"}
	locs := locations()
	eigen := locs[formula.DepEigen]
	eigen.Version = "3.2.0"
	locs[formula.DepEigen] = eigen
	r.Locations = locs

	plan, err := r.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{formula.OptFPIC, formula.OptOpenBLAS, formula.OptCXX11}, plan.Info.Removed)
	assert.Equal(t, []string{"share/Ceres"}, plan.Info.ResDirs)
	assert.Equal(t, []string{"ceres.lib"}, plan.Info.Libs)
	_, ok := plan.Definitions.Get(defs.KeyCXXStandard)
	assert.False(t, ok)
}
