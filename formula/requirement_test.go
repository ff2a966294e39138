package formula

import (
	"testing"
)

func TestRange_Allows(t *testing.T) {
	bounded := Between("3.2.0", "3.3.4")
	tests := []struct {
		r       Range
		version string
		want    bool
	}{
		{bounded, "3.2.0", true},
		{bounded, "3.3.3", true},
		{bounded, "3.3.4", false},
		{bounded, "3.1.9", false},
		{AtLeast("3.2.0"), "3.4.0", true},
		{AtLeast("3.2.0"), "3.2.0", true},
		{Above("0.3.1"), "0.3.1", false},
		{Above("0.3.1"), "0.3.5", true},
		{Range{Upper: "1.0.0", UpperInclusive: true}, "1.0.0", true},
		{AtLeast("3.2.0"), "latest", false},
		{Range{}, "0.0.1", true},
	}
	for _, tt := range tests {
		if got := tt.r.Allows(tt.version); got != tt.want {
			t.Errorf("%s.Allows(%q) = %v, want %v", tt.r, tt.version, got, tt.want)
		}
	}
}

func TestRange_String(t *testing.T) {
	tests := []struct {
		r    Range
		want string
	}{
		{AtLeast("3.2.0"), "[>=3.2.0]"},
		{Above("0.3.1"), "[>0.3.1]"},
		{Between("3.2.0", "3.3.4"), "[>=3.2.0,<3.3.4]"},
		{Range{Upper: "2.0.0", UpperInclusive: true}, "[<=2.0.0]"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseRange(tt.want)
		if err != nil {
			t.Errorf("ParseRange(%q) error = %v", tt.want, err)
			continue
		}
		if parsed != tt.r {
			t.Errorf("ParseRange(%q) = %+v, want %+v", tt.want, parsed, tt.r)
		}
	}
}

func TestParseRange_Errors(t *testing.T) {
	for _, s := range []string{">=3.2.0", "[>=3.2.0", "[=3.2.0]", "[>=three]"} {
		if _, err := ParseRange(s); err == nil {
			t.Errorf("ParseRange(%q) error = nil, want error", s)
		}
	}
	r, err := ParseRange("[ >= 3.2.0 , < 3.3.4 ]")
	if err != nil || r != Between("3.2.0", "3.3.4") {
		t.Errorf("ParseRange with spaces = %+v, %v", r, err)
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"1.13.0":  "v1.13.0",
		"v3.3.4":  "v3.3.4",
		"3.3":     "v3.3.0",
		"latest":  "",
		"":        "",
		"2.0.0rc": "",
	}
	for in, want := range tests {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequirement_Ref(t *testing.T) {
	r := Requirement{Name: DepEigen, Range: AtLeast("3.2.0")}
	if got, want := r.Ref("ntc/stable"), "eigen/[>=3.2.0]@ntc/stable"; got != want {
		t.Errorf("Ref() = %q, want %q", got, want)
	}
	if got, want := r.Ref(""), "eigen/[>=3.2.0]"; got != want {
		t.Errorf("Ref(\"\") = %q, want %q", got, want)
	}
}
