// Package config loads the recipe profile: the package version, option
// values, target settings and where dependencies and outputs live.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/env"
	"github.com/goplus/ceres-recipe/pkgs/mod/module"
	"github.com/goplus/ceres-recipe/pkgs/mod/versions"
)

// DefaultRemote is the upstream ceres-solver repository.
const DefaultRemote = "https://ceres-solver.googlesource.com/ceres-solver"

// DefaultUserChannel is appended to dependency references.
const DefaultUserChannel = "ntc/stable"

var errNoVersion = errors.New("version is required")

// Config is the recipe profile.
type Config struct {
	Version     string          `mapstructure:"version"`
	Options     map[string]bool `mapstructure:"options"`
	Settings    Settings        `mapstructure:"settings"`
	DepsFile    string          `mapstructure:"deps_file"`
	Source      Source          `mapstructure:"source"`
	WorkDir     string          `mapstructure:"work_dir"`
	PackageDir  string          `mapstructure:"package_dir"`
	UserChannel string          `mapstructure:"user_channel"`
}

// Settings describe the target platform.
type Settings struct {
	OS        string `mapstructure:"os"`
	Compiler  string `mapstructure:"compiler"`
	Arch      string `mapstructure:"arch"`
	BuildType string `mapstructure:"build_type"`
}

// Source describes where the ceres sources and patches come from.
type Source struct {
	Remote   string `mapstructure:"remote"`
	PatchDir string `mapstructure:"patch_dir"`
}

// Load reads the profile from path, or from ceres.yaml in the working
// directory when path is empty. A missing ceres.yaml is not an error.
// Every key can be overridden by a CERES_ environment variable, e.g.
// CERES_VERSION or CERES_OPTIONS_SUITESPARSE.
func Load(path string) (*Config, error) {
	v := viper.New()

	host := formula.HostPlatform()
	v.SetDefault("settings.os", host.OS)
	v.SetDefault("settings.compiler", host.Compiler)
	v.SetDefault("settings.arch", host.Arch)
	v.SetDefault("settings.build_type", "Release")
	v.SetDefault("source.remote", DefaultRemote)
	v.SetDefault("source.patch_dir", ".")
	v.SetDefault("user_channel", DefaultUserChannel)
	v.SetDefault("version", "")
	v.SetDefault("deps_file", "")
	v.SetDefault("package_dir", "")
	if workDir, err := env.WorkDir(); err == nil {
		v.SetDefault("work_dir", workDir)
	}
	for name, value := range formula.DefaultOptions() {
		v.SetDefault("options."+strings.ToLower(name), value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ceres")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CERES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.normalizeOptions(); err != nil {
		return nil, err
	}
	if file := v.ConfigFileUsed(); file != "" {
		cfg.resolvePaths(filepath.Dir(file))
	}
	return &cfg, nil
}

// normalizeOptions restores the canonical option spelling viper lowercased
// and rejects unknown names.
func (c *Config) normalizeOptions() error {
	opts := make(map[string]bool, len(c.Options))
	var unknown formula.OptionSet
	for name, value := range c.Options {
		canonical, ok := formula.LookupOption(name)
		if !ok {
			if unknown == nil {
				unknown = formula.OptionSet{}
			}
			unknown[name] = value
			continue
		}
		opts[canonical] = value
	}
	if err := unknown.Validate(); err != nil {
		return err
	}
	c.Options = opts
	return nil
}

// resolvePaths makes the relative paths of a config file relative to the
// file's directory.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.DepsFile, &c.Source.PatchDir, &c.WorkDir, &c.PackageDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks the profile is complete enough to resolve a build.
func (c *Config) Validate() error {
	if c.Version == "" {
		return &formula.Error{Op: "config", Subject: "version", Kind: formula.ErrConfiguration, Err: errNoVersion}
	}
	return formula.OptionSet(c.Options).Validate()
}

// OptionSet returns the configured options.
func (c *Config) OptionSet() formula.OptionSet {
	return formula.OptionSet(c.Options)
}

// Platform returns the configured target platform.
func (c *Config) Platform() formula.Platform {
	return formula.Platform{
		OS:        c.Settings.OS,
		Compiler:  c.Settings.Compiler,
		Arch:      c.Settings.Arch,
		BuildType: c.Settings.BuildType,
	}
}

// Dirs returns the working directories of this configuration. PackageDir,
// when set, replaces the default package directory.
func (c *Config) Dirs() (env.Dirs, error) {
	mod := module.Version{Path: formula.PackageName, Version: c.Version}
	dirs, err := env.DirsFor(c.WorkDir, mod, c.Platform().String()+" "+c.OptionSet().String())
	if err != nil {
		return env.Dirs{}, &formula.Error{Op: "config", Subject: "version", Kind: formula.ErrConfiguration, Err: err}
	}
	if c.PackageDir != "" {
		dirs.Package = c.PackageDir
	}
	return dirs, nil
}

// Locations reads the dependency-location file. Without one, no dependency
// is located.
func (c *Config) Locations() (formula.LocationProvider, error) {
	if c.DepsFile == "" {
		return formula.Locations{}, nil
	}
	locs, err := versions.Parse(c.DepsFile, nil)
	if err != nil {
		return nil, fmt.Errorf("read deps file: %w", err)
	}
	return locs, nil
}
