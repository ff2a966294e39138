package buildsys

import (
	"fmt"
	"maps"
	"slices"
)

// Definition types understood by the build system cache.
const (
	Untyped  = ""
	TypeBool = "BOOL"
	TypePath = "PATH"
	TypeStr  = "STRING"
)

// Definition is one build-system cache entry.
type Definition struct {
	Key   string
	Type  string
	Value string
}

// ConflictError reports two writers disagreeing on one key.
type ConflictError struct {
	Key      string
	Old, New Definition
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("definition %s: %q conflicts with %q", e.Key, e.New.Value, e.Old.Value)
}

// Definitions is the set of definitions handed to one configure call.
// Keys are unique; iteration is in key order so logs are reproducible.
type Definitions struct {
	m map[string]Definition
}

// NewDefinitions returns an empty set.
func NewDefinitions() *Definitions {
	return &Definitions{m: map[string]Definition{}}
}

// Add inserts d. Re-adding an identical definition is allowed; a different
// value for an existing key is a *ConflictError.
func (s *Definitions) Add(d Definition) error {
	if s.m == nil {
		s.m = map[string]Definition{}
	}
	if old, ok := s.m[d.Key]; ok && old != d {
		return &ConflictError{Key: d.Key, Old: old, New: d}
	}
	s.m[d.Key] = d
	return nil
}

// Override inserts d, replacing any existing definition of its key.
func (s *Definitions) Override(d Definition) {
	if s.m == nil {
		s.m = map[string]Definition{}
	}
	s.m[d.Key] = d
}

// Get returns the definition of key.
func (s *Definitions) Get(key string) (Definition, bool) {
	d, ok := s.m[key]
	return d, ok
}

// Value returns the value of key, or "" if unset.
func (s *Definitions) Value(key string) string {
	return s.m[key].Value
}

// Len returns the number of definitions.
func (s *Definitions) Len() int {
	return len(s.m)
}

// Keys returns the keys in sorted order.
func (s *Definitions) Keys() []string {
	return slices.Sorted(maps.Keys(s.m))
}

// All returns the definitions in key order.
func (s *Definitions) All() []Definition {
	keys := s.Keys()
	out := make([]Definition, len(keys))
	for i, k := range keys {
		out[i] = s.m[k]
	}
	return out
}

// Merge adds every definition of other, failing on the first conflict.
func (s *Definitions) Merge(other *Definitions) error {
	if other == nil {
		return nil
	}
	for _, d := range other.All() {
		if err := s.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// Bool returns a BOOL definition with value ON or OFF.
func Bool(key string, on bool) Definition {
	if on {
		return Definition{Key: key, Type: TypeBool, Value: "ON"}
	}
	return Definition{Key: key, Type: TypeBool, Value: "OFF"}
}

// Path returns a PATH definition.
func Path(key, value string) Definition {
	return Definition{Key: key, Type: TypePath, Value: value}
}

// Str returns a STRING definition.
func Str(key, value string) Definition {
	return Definition{Key: key, Type: TypeStr, Value: value}
}

// Plain returns an untyped definition.
func Plain(key, value string) Definition {
	return Definition{Key: key, Value: value}
}
