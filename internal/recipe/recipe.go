// Package recipe packages one ceres-solver configuration: it resolves the
// build parameters, fetches and patches the sources, drives the external
// build and relocates the installed find-scripts.
//
// All configuration errors surface from Plan, before any external command
// runs. Run then calls the fetcher and build system in order and stops at
// the first failure without retrying or cleaning up.
package recipe

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qiniu/x/log"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/defs"
	"github.com/goplus/ceres-recipe/internal/env"
	"github.com/goplus/ceres-recipe/internal/relocate"
	"github.com/goplus/ceres-recipe/internal/resolve"
	"github.com/goplus/ceres-recipe/pkgs/buildsys"
	"github.com/goplus/ceres-recipe/pkgs/buildsys/cmake"
)

// Fetcher prepares the source tree. vcs.VCS implements it.
type Fetcher interface {
	Sync(ctx context.Context, remote, ref, dir string) error
	Apply(ctx context.Context, dir string, patch []byte) error
}

// BuildSystemFunc creates the build system for one run.
type BuildSystemFunc func(dirs env.Dirs, plat formula.Platform) buildsys.BuildSystem

// CMake builds with cmake into dirs.
func CMake(dirs env.Dirs, plat formula.Platform) buildsys.BuildSystem {
	return cmake.New(dirs.Source, dirs.Build, dirs.Package).BuildType(plat.BuildType)
}

// Recipe is one packaging request.
type Recipe struct {
	Version     string
	Options     formula.OptionSet
	Platform    formula.Platform
	Locations   formula.LocationProvider
	Project     *formula.Project // patches, may be nil
	Remote      string
	UserChannel string
	Dirs        env.Dirs

	// CacheDir records successful builds; empty disables the cache.
	CacheDir string
	// Force rebuilds even when the cache has the configuration.
	Force bool

	Fetcher        Fetcher
	NewBuildSystem BuildSystemFunc
	Logger         *log.Logger
}

// Plan is everything decided before the external build runs.
type Plan struct {
	Resolution   resolve.Resolution
	Options      formula.NormalizedOptions
	EigenVersion string
	// Locations are the dependency locations the build uses, in
	// glog, eigen, suitesparse, openblas order.
	Locations    []formula.DependencyLocation
	Definitions  *buildsys.Definitions
	Info         PackageInfo
	Warnings     []formula.Warning
}

// Args returns the definitions as cmake arguments.
func (p *Plan) Args() []string {
	return cmake.Args(p.Definitions)
}

// Config identifies the configuration the plan builds, including the
// version and root of every dependency it links against.
func (p *Plan) Config() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", p.Resolution.Platform, p.Options)
	for _, loc := range p.Locations {
		fmt.Fprintf(&b, " %s=%s@%s", loc.Name, loc.Version, loc.RootPath)
	}
	return b.String()
}

func (r *Recipe) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Std
}

func (r *Recipe) locations() formula.LocationProvider {
	if r.Locations != nil {
		return r.Locations
	}
	return formula.Locations{}
}

// Plan resolves the version, options and dependency locations into build
// definitions and package metadata. It runs no external command.
func (r *Recipe) Plan() (*Plan, error) {
	logger := r.logger()
	res, err := resolve.Resolve(r.Version, r.Options, r.Platform)
	if err != nil {
		return nil, err
	}

	locs := r.locations()
	eigen, ok := locs.Location(formula.DepEigen)
	if !ok {
		return nil, &formula.Error{Op: "recipe", Subject: formula.DepEigen, Kind: formula.ErrMissingDependency,
			Err: fmt.Errorf("required as %s/%s", formula.DepEigen, res.EigenRange())}
	}
	opts, err := res.Normalize(eigen.Version)
	if err != nil {
		return nil, err
	}
	for _, removed := range opts.Removed() {
		logger.Infof("option %s removed: %s", removed.Name, removed.Reason)
	}
	r.warnUnused(opts, locs)

	d, err := defs.Build(opts, res.Deps.Requirements(), locs, r.Platform)
	if err != nil {
		return nil, err
	}

	info, warnings := NewPackageInfo(res, opts, r.UserChannel)
	for _, w := range warnings {
		logger.Warn(w.String())
	}
	return &Plan{
		Resolution:   res,
		Options:      opts,
		EigenVersion: eigen.Version,
		Locations:    usedLocations(opts, locs),
		Definitions:  d,
		Info:         info,
		Warnings:     warnings,
	}, nil
}

func usesLocation(opts formula.NormalizedOptions, name string) bool {
	switch name {
	case formula.DepSuiteSparse:
		return opts.Enabled(formula.OptSuiteSparse) || opts.Enabled(formula.OptCXSparse)
	case formula.DepOpenBLAS:
		return opts.Enabled(formula.OptSuiteSparse) || opts.Enabled(formula.OptOpenBLAS)
	}
	return true
}

func usedLocations(opts formula.NormalizedOptions, locs formula.LocationProvider) []formula.DependencyLocation {
	var used []formula.DependencyLocation
	for _, name := range []string{formula.DepGlog, formula.DepEigen, formula.DepSuiteSparse, formula.DepOpenBLAS} {
		if loc, ok := locs.Location(name); ok && usesLocation(opts, name) {
			used = append(used, loc)
		}
	}
	return used
}

func (r *Recipe) warnUnused(opts formula.NormalizedOptions, locs formula.LocationProvider) {
	for _, name := range []string{formula.DepSuiteSparse, formula.DepOpenBLAS} {
		if _, ok := locs.Location(name); ok && !usesLocation(opts, name) {
			r.logger().Warnf("location of %s supplied but no enabled option uses it", name)
		}
	}
}

// Run plans and then packages the configuration. Relocation problems are
// returned as warnings on the result; every other failure is an error.
func (r *Recipe) Run(ctx context.Context) (*Plan, *formula.BuildResult, error) {
	logger := r.logger()
	plan, err := r.Plan()
	if err != nil {
		return nil, nil, err
	}
	result := &formula.BuildResult{}
	for _, w := range plan.Warnings {
		result.AddWarning(w)
	}

	var cache *buildCache
	if r.CacheDir != "" {
		if cache, err = loadCache(r.CacheDir); err != nil {
			logger.Warnf("ignoring build cache: %v", err)
			cache = &buildCache{}
		}
		if entry, ok := r.upToDate(cache, plan); ok {
			logger.Infof("%s %s is up to date in %s", PackageName, r.Version, entry.PackageDir)
			result.SetOutputDir(entry.PackageDir)
			for _, p := range entry.Relocated {
				result.AddRelocated(p)
			}
			return plan, result, nil
		}
	}

	if err := r.fetch(ctx); err != nil {
		return plan, nil, err
	}

	newBS := r.NewBuildSystem
	if newBS == nil {
		newBS = CMake
	}
	bs := newBS(r.Dirs, r.Platform)
	for _, loc := range plan.Locations {
		bs.Use(loc.RootPath)
	}
	bs.Apply(plan.Definitions)
	logger.Infof("CMake flags:\n%s", strings.Join(plan.Args(), "\n"))

	if err := bs.Configure(ctx); err != nil {
		return plan, nil, fmt.Errorf("configure: %w", err)
	}
	if err := bs.Build(ctx); err != nil {
		return plan, nil, fmt.Errorf("build: %w", err)
	}
	if err := bs.Install(ctx); err != nil {
		return plan, nil, fmt.Errorf("install: %w", err)
	}
	result.SetOutputDir(bs.OutputDir())

	relocator, err := relocate.New(plan.EigenVersion, relocate.WithLogger(logger))
	if err != nil {
		return plan, nil, err
	}
	files, warnings, err := relocator.RelocatePackage(bs.OutputDir())
	if err != nil {
		return plan, nil, fmt.Errorf("relocate: %w", err)
	}
	for _, f := range files {
		result.AddRelocated(f.Path)
	}
	for _, w := range warnings {
		logger.Warn(w.String())
		result.AddWarning(w)
	}

	if cache != nil {
		cache.set(r.Version, env.ConfigID(plan.Config()), &buildEntry{
			PackageDir: result.OutputDir(),
			Relocated:  result.Relocated(),
			BuildTime:  time.Now(),
		})
		if err := saveCache(r.CacheDir, cache); err != nil {
			logger.Warnf("save build cache: %v", err)
		}
	}
	return plan, result, nil
}

func (r *Recipe) upToDate(cache *buildCache, plan *Plan) (*buildEntry, bool) {
	if r.Force {
		return nil, false
	}
	entry, ok := cache.get(r.Version, env.ConfigID(plan.Config()))
	if !ok || (r.Dirs.Package != "" && entry.PackageDir != r.Dirs.Package) {
		return nil, false
	}
	if fi, err := os.Stat(entry.PackageDir); err != nil || !fi.IsDir() {
		return nil, false
	}
	return entry, true
}

// fetch checks out the version and applies its patch, if the project has one.
func (r *Recipe) fetch(ctx context.Context) error {
	if r.Fetcher == nil {
		return fmt.Errorf("fetch %s: no fetcher configured", r.Version)
	}
	if err := r.Fetcher.Sync(ctx, r.Remote, r.Version, r.Dirs.Source); err != nil {
		return err
	}
	patch, ok, err := r.Project.Patch(r.Version)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.logger().Infof("applying patch-%s", r.Version)
	return r.Fetcher.Apply(ctx, r.Dirs.Source, patch)
}
