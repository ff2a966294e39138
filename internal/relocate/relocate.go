// Package relocate rewrites build-machine paths in generated CMake
// find-scripts into placeholders the consumer's build resolves, so that the
// packaged ceres-solver can be used from any location.
package relocate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"

	"github.com/goplus/ceres-recipe/formula"
)

// CandidatePaths lists where ceres installs its find-script, relative to the
// package root. Different release series use different locations.
var CandidatePaths = []string{
	"share/Ceres/CeresConfig.cmake",
	"CMake/CeresConfig.cmake",
	"lib/cmake/Ceres/CeresConfig.cmake",
}

// Relocator applies a fixed list of rules to find-script text.
type Relocator struct {
	rules  []Rule
	logger *log.Logger
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithLogger sets the logger used for per-rule diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Relocator) {
		r.logger = l
	}
}

// WithRules replaces the default rules.
func WithRules(rules ...Rule) Option {
	return func(r *Relocator) {
		r.rules = rules
	}
}

// New returns a Relocator using DefaultRules for eigenVersion. It fails with
// ErrConfiguration if eigenVersion is not a valid version.
func New(eigenVersion string, opts ...Option) (*Relocator, error) {
	rules, err := DefaultRules(eigenVersion)
	if err != nil {
		return nil, err
	}
	r := &Relocator{rules: rules, logger: log.Std}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rules returns the rules in application order.
func (r *Relocator) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Relocate rewrites text and returns the names of the rules that matched.
// A rule that matches nothing yields an ErrPatternNotFound warning and leaves
// text as it is. Relocate is idempotent: its output contains no path any
// rule would match.
func (r *Relocator) Relocate(text string) (string, []string, []formula.Warning) {
	var applied []string
	var warnings []formula.Warning
	input := text
	for _, rule := range r.rules {
		matched := false
		// each pass replaces every copy of one fingerprinted base with a
		// placeholder that has no fingerprint, so the loop terminates
		for {
			out, base := rule.Apply(text)
			if base == "" {
				break
			}
			r.logger.Debugf("relocate %s: %s => %s", rule.Name(), base, rule.Placeholder())
			text, matched = out, true
		}
		if !matched {
			// an earlier rule may have rewritten the same base path
			if _, base := rule.Apply(input); base != "" {
				r.logger.Debugf("relocate %s: already rewritten by an earlier rule", rule.Name())
				matched = true
			}
		}
		if matched {
			applied = append(applied, rule.Name())
			continue
		}
		warnings = append(warnings, formula.Warning{
			Kind:    formula.ErrPatternNotFound,
			Subject: rule.Name(),
			Message: fmt.Sprintf("no absolute %s path found", rule.Kind()),
		})
	}
	return text, applied, warnings
}

// -----------------------------------------------------------------------------

// RelocateFile rewrites the find-script at path in place, keeping its mode.
// The file is only written when its content changed.
func (r *Relocator) RelocateFile(path string) ([]string, []formula.Warning, error) {
	data, mode, err := readFile(path)
	if err != nil {
		return nil, nil, err
	}

	out, applied, warnings := r.Relocate(string(data))
	for i := range warnings {
		warnings[i].Message = path + ": " + warnings[i].Message
	}
	if out == string(data) {
		return applied, warnings, nil
	}
	if err := os.WriteFile(path, []byte(out), mode.Perm()); err != nil {
		return nil, nil, err
	}
	return applied, warnings, nil
}

func readFile(path string) ([]byte, fs.FileMode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	data, err := io.ReadAll(f)
	return data, fi.Mode(), err
}

// FileResult reports the relocation of one find-script.
type FileResult struct {
	Path    string
	Applied []string
}

// RelocatePackage probes every candidate path under root and relocates each
// find-script it finds, once. When none exists it returns a single
// ErrArtifactNotFound warning. I/O errors on an existing file are fatal.
func (r *Relocator) RelocatePackage(root string) ([]FileResult, []formula.Warning, error) {
	var results []FileResult
	var warnings []formula.Warning
	for _, rel := range CandidatePaths {
		path := filepath.Join(root, filepath.FromSlash(rel))
		fi, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if fi.IsDir() {
			continue
		}
		applied, ws, err := r.RelocateFile(path)
		if err != nil {
			return nil, nil, err
		}
		r.logger.Infof("relocated %s (%d rules)", path, len(applied))
		results = append(results, FileResult{Path: path, Applied: applied})
		warnings = append(warnings, ws...)
	}
	if len(results) == 0 {
		warnings = append(warnings, formula.Warning{
			Kind:    formula.ErrArtifactNotFound,
			Subject: root,
			Message: "no CeresConfig.cmake under any candidate path",
		})
	}
	return results, warnings, nil
}
