// Package defs composes the CMake cache definitions for one ceres-solver
// build from the normalized options, the declared requirements and the
// dependency locations.
//
// Each backend (core, logging, sparse, cxsparse, alternate BLAS) is a typed
// record that only writes its own keys. The records are merged into one
// buildsys.Definitions; two records writing different values to one key is
// reported as an error rather than silently resolved.
package defs

import (
	"errors"
	"path/filepath"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/naming"
	"github.com/goplus/ceres-recipe/pkgs/buildsys"
)

// Definition keys.
const (
	KeySharedLibs      = "BUILD_SHARED_LIBS"
	KeyNoRegistry      = "NO_CMAKE_PACKAGE_REGISTRY"
	KeyEigenInclude    = "EIGEN_INCLUDE_DIR"
	KeyEigenConfigDir  = "Eigen3_DIR"
	KeyCXXStandard     = "CMAKE_CXX_STANDARD"
	KeyCXX11           = "CXX11"
	KeyPIC             = "CMAKE_POSITION_INDEPENDENT_CODE"
	KeyCustomBLAS      = "CUSTOM_BLAS"
	KeyCXXFlags        = "CMAKE_CXX_FLAGS"
	KeyGlogDir         = "glog_DIR"
	KeyGlogInclude     = "GLOG_INCLUDE_DIR"
	KeyGlogLibrary     = "GLOG_LIBRARY"
	KeySuiteSparse     = "SUITESPARSE"
	KeySSConfigInclude = "SUITESPARSE_CONFIG_INCLUDE_DIR"
	KeySSConfigLibrary = "SUITESPARSE_CONFIG_LIBRARY"
	KeyAMDLibrary      = "AMD_LIBRARY"
	KeyCOLAMDLibrary   = "COLAMD_LIBRARY"
	KeyCCOLAMDLibrary  = "CCOLAMD_LIBRARY"
	KeyCHOLMODLibrary  = "CHOLMOD_LIBRARY"
	KeySPQRInclude     = "SUITESPARSEQR_INCLUDE_DIR"
	KeySPQRLibrary     = "SUITESPARSEQR_LIBRARY"
	KeySSIncludeHints  = "SUITESPARSE_INCLUDE_DIR_HINTS"
	KeySSLibraryHints  = "SUITESPARSE_LIBRARY_DIR_HINTS"
	KeyBLASLibraries   = "BLAS_LIBRARIES"
	KeyLAPACKLibraries = "LAPACK_LIBRARIES"
	KeyCXSparse        = "CXSPARSE"
	KeyCXSparseInclude = "CXSPARSE_INCLUDE_DIR"
	KeyCXSparseLibrary = "CXSPARSE_LIBRARY"
)

// SparseConfigKeys are the keys only written when suitesparse is enabled.
var SparseConfigKeys = []string{
	KeySSConfigInclude, KeySSConfigLibrary,
	KeyAMDLibrary, KeyCOLAMDLibrary, KeyCCOLAMDLibrary, KeyCHOLMODLibrary,
	KeySPQRInclude, KeySPQRLibrary,
}

const (
	genericTuneFlags = "-mtune=generic"
	cxxStandard      = "11"

	// reference BLAS/LAPACK shipped inside the Windows suitesparse package
	bundledBLAS   = "libblas.lib"
	bundledLAPACK = "liblapack.lib"

	sparseIncludeSubdir = "suitesparse"
)

// Build returns the definitions for one build. reqs are the declared
// requirements; every one of them must have a location. plat selects
// platform naming and the Windows-only keys.
func Build(opts formula.NormalizedOptions, reqs []formula.Requirement, locs formula.LocationProvider, plat formula.Platform) (*buildsys.Definitions, error) {
	for _, r := range reqs {
		if _, ok := locs.Location(r.Name); !ok {
			return nil, missing(r.Name, "required as "+r.Ref(""))
		}
	}

	pkgLinkage := formula.LinkageOf(opts.Enabled(formula.OptShared))

	eigen, err := lookup(locs, formula.DepEigen, "always required")
	if err != nil {
		return nil, err
	}
	glog, err := lookup(locs, formula.DepGlog, "always required")
	if err != nil {
		return nil, err
	}

	records := []record{
		newCore(opts, eigen, plat),
		newLogging(glog, pkgLinkage, plat),
	}

	// a supplied openblas location owns BLAS/LAPACK whenever suitesparse
	// is on; the openblas option only declares the requirement
	var alt *blasDefs
	if opts.Enabled(formula.OptSuiteSparse) {
		if ob, ok := locs.Location(formula.DepOpenBLAS); ok {
			alt = newBLAS(ob, pkgLinkage, plat)
		}
	}

	if opts.Enabled(formula.OptSuiteSparse) {
		ss, err := lookup(locs, formula.DepSuiteSparse, "suitesparse=True")
		if err != nil {
			return nil, err
		}
		records = append(records, newSparse(ss, pkgLinkage, plat, alt != nil))
	} else {
		records = append(records, sparseOff{})
	}

	if opts.Enabled(formula.OptCXSparse) {
		ss, err := lookup(locs, formula.DepSuiteSparse, "cxsparse=True")
		if err != nil {
			return nil, err
		}
		records = append(records, newCXSparse(ss))
	} else {
		records = append(records, cxsparseOff{})
	}

	if alt != nil {
		records = append(records, alt)
	}

	defs := buildsys.NewDefinitions()
	for _, r := range records {
		for _, d := range r.definitions() {
			if err := defs.Add(d); err != nil {
				return nil, &formula.Error{Op: "defs", Subject: d.Key, Kind: formula.ErrConfiguration, Err: err}
			}
		}
	}
	return defs, nil
}

func lookup(locs formula.LocationProvider, name, why string) (formula.DependencyLocation, error) {
	loc, ok := locs.Location(name)
	if !ok {
		return loc, missing(name, why)
	}
	return loc, nil
}

func missing(name, why string) error {
	return &formula.Error{Op: "defs", Subject: name, Kind: formula.ErrMissingDependency,
		Err: errors.New(why)}
}

// -----------------------------------------------------------------------------

type record interface {
	definitions() []buildsys.Definition
}

type coreDefs struct {
	shared       bool
	eigenInclude string
	eigenConfig  string
	cxx11        bool
	pic          bool
	customBLAS   *bool
	cxxFlags     string
}

func newCore(opts formula.NormalizedOptions, eigen formula.DependencyLocation, plat formula.Platform) coreDefs {
	c := coreDefs{
		shared:      opts.Enabled(formula.OptShared),
		eigenConfig: filepath.Join(eigen.RootPath, "share", "eigen3", "cmake"),
		cxx11:       opts.Enabled(formula.OptCXX11),
		pic:         opts.Enabled(formula.OptFPIC),
	}
	if len(eigen.IncludeDirs) > 0 {
		c.eigenInclude = eigen.IncludeDir()
	} else {
		c.eigenInclude = filepath.Join(eigen.RootPath, "include", "eigen3")
	}
	if opts.Has(formula.OptCustomBLAS) {
		v := opts.Enabled(formula.OptCustomBLAS)
		c.customBLAS = &v
	}
	if !plat.IsMSVC() {
		c.cxxFlags = genericTuneFlags
	}
	return c
}

func (c coreDefs) definitions() []buildsys.Definition {
	shared := "FALSE"
	if c.shared {
		shared = "TRUE"
	}
	out := []buildsys.Definition{
		buildsys.Plain(KeySharedLibs, shared),
		buildsys.Bool(KeyNoRegistry, true),
		buildsys.Path(KeyEigenInclude, c.eigenInclude),
		buildsys.Path(KeyEigenConfigDir, c.eigenConfig),
	}
	if c.cxx11 {
		out = append(out,
			buildsys.Bool(KeyCXX11, true),
			buildsys.Plain(KeyCXXStandard, cxxStandard),
		)
	}
	if c.pic {
		out = append(out, buildsys.Bool(KeyPIC, true))
	}
	if c.customBLAS != nil {
		out = append(out, buildsys.Bool(KeyCustomBLAS, *c.customBLAS))
	}
	if c.cxxFlags != "" {
		out = append(out, buildsys.Str(KeyCXXFlags, c.cxxFlags))
	}
	return out
}

// loggingDefs points ceres at glog. The library path is computed from the
// platform naming rules and takes precedence over the provider's list.
type loggingDefs struct {
	dir     string
	include string
	library string
}

func newLogging(glog formula.DependencyLocation, pkgLinkage formula.Linkage, plat formula.Platform) loggingDefs {
	name := naming.LibraryFileName(formula.DepGlog, plat.OS, glog.Linkage(pkgLinkage))
	return loggingDefs{
		dir:     glog.RootPath,
		include: glog.IncludeDir(),
		library: filepath.Join(glog.LibDir(), name),
	}
}

func (l loggingDefs) definitions() []buildsys.Definition {
	return []buildsys.Definition{
		buildsys.Path(KeyGlogDir, l.dir),
		buildsys.Path(KeyGlogInclude, l.include),
		buildsys.Path(KeyGlogLibrary, l.library),
	}
}

type sparseDefs struct {
	include string
	libDir  string
	libs    map[string]string // key -> file name
	windows bool
	bundled bool
}

func newSparse(ss formula.DependencyLocation, pkgLinkage formula.Linkage, plat formula.Platform, altBLAS bool) sparseDefs {
	linkage := ss.Linkage(pkgLinkage)
	lib := func(name string) string { return naming.LibraryFileName(name, plat.OS, linkage) }
	return sparseDefs{
		include: filepath.Join(ss.RootPath, "include", sparseIncludeSubdir),
		libDir:  ss.LibDir(),
		libs: map[string]string{
			KeySSConfigLibrary: lib("suitesparseconfig"),
			KeyAMDLibrary:      lib("amd"),
			KeyCOLAMDLibrary:   lib("colamd"),
			KeyCCOLAMDLibrary:  lib("ccolamd"),
			KeyCHOLMODLibrary:  lib("cholmod"),
			KeySPQRLibrary:     lib("spqr"),
		},
		windows: plat.IsWindows(),
		bundled: plat.IsWindows() && !altBLAS,
	}
}

func (s sparseDefs) definitions() []buildsys.Definition {
	out := []buildsys.Definition{
		buildsys.Bool(KeySuiteSparse, true),
		buildsys.Path(KeySSConfigInclude, s.include),
		buildsys.Path(KeySPQRInclude, s.include),
	}
	for _, key := range []string{KeySSConfigLibrary, KeyAMDLibrary, KeyCOLAMDLibrary, KeyCCOLAMDLibrary, KeyCHOLMODLibrary, KeySPQRLibrary} {
		out = append(out, buildsys.Path(key, filepath.Join(s.libDir, s.libs[key])))
	}
	if s.windows {
		out = append(out,
			buildsys.Path(KeySSIncludeHints, s.include),
			buildsys.Path(KeySSLibraryHints, s.libDir),
		)
	}
	if s.bundled {
		out = append(out,
			buildsys.Path(KeyBLASLibraries, filepath.Join(s.libDir, bundledBLAS)),
			buildsys.Path(KeyLAPACKLibraries, filepath.Join(s.libDir, bundledLAPACK)),
		)
	}
	return out
}

type sparseOff struct{}

func (sparseOff) definitions() []buildsys.Definition {
	return []buildsys.Definition{buildsys.Bool(KeySuiteSparse, false)}
}

// cxsparseDefs always names the library "lib<name>.so", including on
// Windows. Existing packages were built against that path.
type cxsparseDefs struct {
	include string
	library string
}

func newCXSparse(ss formula.DependencyLocation) cxsparseDefs {
	return cxsparseDefs{
		include: filepath.Join(ss.RootPath, "include", sparseIncludeSubdir),
		library: filepath.Join(ss.LibDir(), naming.SharedObjectName("cxsparse")),
	}
}

func (c cxsparseDefs) definitions() []buildsys.Definition {
	return []buildsys.Definition{
		buildsys.Bool(KeyCXSparse, true),
		buildsys.Path(KeyCXSparseInclude, c.include),
		buildsys.Path(KeyCXSparseLibrary, c.library),
	}
}

type cxsparseOff struct{}

func (cxsparseOff) definitions() []buildsys.Definition {
	return []buildsys.Definition{buildsys.Bool(KeyCXSparse, false)}
}

// blasDefs replaces the reference BLAS/LAPACK with an optimized library.
type blasDefs struct {
	library string
}

func newBLAS(ob formula.DependencyLocation, pkgLinkage formula.Linkage, plat formula.Platform) *blasDefs {
	name := naming.LibraryFileName(formula.DepOpenBLAS, plat.OS, ob.Linkage(pkgLinkage))
	return &blasDefs{library: filepath.Join(ob.LibDir(), name)}
}

func (b *blasDefs) definitions() []buildsys.Definition {
	return []buildsys.Definition{
		buildsys.Path(KeyBLASLibraries, b.library),
		buildsys.Path(KeyLAPACKLibraries, b.library),
	}
}
