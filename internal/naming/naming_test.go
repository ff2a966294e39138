package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goplus/ceres-recipe/formula"
)

func TestLibraryFileName(t *testing.T) {
	tests := []struct {
		name    string
		lib     string
		os      string
		linkage formula.Linkage
		want    string
	}{
		{"windows shared", "glog", "Windows", formula.Shared, "glog.lib"},
		{"windows static", "glog", "Windows", formula.Static, "glog.lib"},
		{"windows lower case", "glog", "windows", formula.Shared, "glog.lib"},
		{"linux shared", "glog", "Linux", formula.Shared, "libglog.so"},
		{"linux static", "glog", "Linux", formula.Static, "libglog.a"},
		{"macos shared", "ceres", "Macos", formula.Shared, "libceres.so"},
		{"unknown os", "amd", "FreeBSD", formula.Static, "libamd.a"},
		{"empty linkage", "amd", "Linux", "", "libamd.so"},
		{"empty os", "spqr", "", formula.Shared, "libspqr.so"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LibraryFileName(tt.lib, tt.os, tt.linkage))
		})
	}
}

func TestSharedObjectName(t *testing.T) {
	assert.Equal(t, "libcxsparse.so", SharedObjectName("cxsparse"))
}
