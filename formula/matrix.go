package formula

import (
	"fmt"
	"sort"
	"strings"
)

// -----------------------------------------------------------------------------

// Matrix describes the space of configurations a recipe can be built for.
// Require holds platform settings (os, compiler, ...), Options holds recipe
// options. Option values are spelled "<name>ON" or "<name>OFF".
type Matrix struct {
	Require map[string][]string
	Options map[string][]string
}

// OptionMatrix returns the matrix spanning every known option with both values.
func OptionMatrix() Matrix {
	opts := make(map[string][]string, len(knownOptions))
	for _, name := range knownOptions {
		opts[name] = []string{name + "ON", name + "OFF"}
	}
	return Matrix{Options: opts}
}

// layer is one cartesian product row: the sorted keys and one value per key.
type layer struct {
	keys   []string
	values []string
}

func cartesian(kvs map[string][]string) []layer {
	if len(kvs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kvs))
	for k := range kvs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := [][]string{nil}
	for _, k := range keys {
		values := kvs[k]
		next := make([][]string, 0, len(rows)*len(values))
		for _, prev := range rows {
			for _, v := range values {
				row := make([]string, len(prev), len(prev)+1)
				copy(row, prev)
				next = append(next, append(row, v))
			}
		}
		rows = next
	}

	result := make([]layer, len(rows))
	for i, row := range rows {
		result[i] = layer{keys: keys, values: row}
	}
	return result
}

// Combinations returns all cartesian product combinations of the matrix.
// Keys are sorted alphabetically. Require values are joined with "-", then
// combined with the options part using "|".
func (m *Matrix) Combinations() []string {
	join := func(layers []layer) []string {
		if len(layers) == 0 {
			return nil
		}
		out := make([]string, len(layers))
		for i, l := range layers {
			out[i] = strings.Join(l.values, "-")
		}
		return out
	}

	requireCombos := join(cartesian(m.Require))
	optionsCombos := join(cartesian(m.Options))

	if len(requireCombos) == 0 {
		return optionsCombos
	}
	if len(optionsCombos) == 0 {
		return requireCombos
	}

	result := make([]string, 0, len(requireCombos)*len(optionsCombos))
	for _, req := range requireCombos {
		for _, opt := range optionsCombos {
			result = append(result, req+"|"+opt)
		}
	}
	return result
}

// CombinationCount returns the total number of cartesian product combinations.
func (m *Matrix) CombinationCount() int {
	countPart := func(kvs map[string][]string) int {
		if len(kvs) == 0 {
			return 0
		}
		count := 1
		for _, v := range kvs {
			count *= len(v)
		}
		return count
	}

	requireCount := countPart(m.Require)
	optionsCount := countPart(m.Options)

	if requireCount == 0 {
		return optionsCount
	}
	if optionsCount == 0 {
		return requireCount
	}
	return requireCount * optionsCount
}

// OptionSets decodes every options combination of the matrix into an
// OptionSet. Require is ignored.
func (m *Matrix) OptionSets() ([]OptionSet, error) {
	layers := cartesian(m.Options)
	sets := make([]OptionSet, 0, len(layers))
	for _, l := range layers {
		set := make(OptionSet, len(l.keys))
		for i, name := range l.keys {
			v, err := parseOptionValue(name, l.values[i])
			if err != nil {
				return nil, err
			}
			set[name] = v
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func parseOptionValue(name, value string) (bool, error) {
	switch strings.TrimPrefix(value, name) {
	case "ON":
		return true, nil
	case "OFF":
		return false, nil
	}
	return false, &Error{Op: "matrix", Subject: name, Kind: ErrConfiguration,
		Err: fmt.Errorf("value %q is neither %sON nor %sOFF", value, name, name)}
}

// -----------------------------------------------------------------------------
