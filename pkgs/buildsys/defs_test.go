package buildsys

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefinitions_AddAndConflict(t *testing.T) {
	defs := NewDefinitions()
	if err := defs.Add(Bool("SUITESPARSE", true)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	// identical re-add is fine
	if err := defs.Add(Bool("SUITESPARSE", true)); err != nil {
		t.Fatalf("Add() identical error = %v", err)
	}

	err := defs.Add(Bool("SUITESPARSE", false))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Add() error = %v, want *ConflictError", err)
	}
	if conflict.Key != "SUITESPARSE" || conflict.Old.Value != "ON" || conflict.New.Value != "OFF" {
		t.Fatalf("conflict = %+v", conflict)
	}
	if got := defs.Value("SUITESPARSE"); got != "ON" {
		t.Fatalf("Value() after conflict = %q, want ON", got)
	}
}

func TestDefinitions_Override(t *testing.T) {
	defs := NewDefinitions()
	_ = defs.Add(Path("BLAS_LIBRARIES", "/ss/lib/libblas.lib"))
	defs.Override(Path("BLAS_LIBRARIES", "/openblas/lib/openblas.lib"))

	d, ok := defs.Get("BLAS_LIBRARIES")
	if !ok || d.Value != "/openblas/lib/openblas.lib" || d.Type != TypePath {
		t.Fatalf("Get() = %+v, %v", d, ok)
	}
	if defs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", defs.Len())
	}
}

func TestDefinitions_OrderAndMerge(t *testing.T) {
	a := NewDefinitions()
	_ = a.Add(Plain("ZETA", "1"))
	_ = a.Add(Plain("ALPHA", "2"))

	b := NewDefinitions()
	_ = b.Add(Plain("MID", "3"))
	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if err := a.Merge(nil); err != nil {
		t.Fatalf("Merge(nil) error = %v", err)
	}
	if got, want := a.Keys(), []string{"ALPHA", "MID", "ZETA"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	c := NewDefinitions()
	_ = c.Add(Plain("MID", "4"))
	if err := a.Merge(c); err == nil {
		t.Fatal("Merge() of conflicting value succeeded")
	}
}

func TestDefinitions_ZeroValue(t *testing.T) {
	var defs Definitions
	if err := defs.Add(Str("CMAKE_CXX_STANDARD", "11")); err != nil {
		t.Fatal(err)
	}
	if defs.Value("CMAKE_CXX_STANDARD") != "11" {
		t.Fatalf("Value() = %q", defs.Value("CMAKE_CXX_STANDARD"))
	}
}
