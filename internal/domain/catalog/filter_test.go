package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFilter_KnownIDs(t *testing.T) {
	f := NewIDFilter([]string{"p1", "p2", "p3"})

	assert.True(t, f.MayContain("p1"))
	assert.True(t, f.MayContain("p2"))
	assert.True(t, f.MayContain("p3"))
}

func TestIDFilter_UnknownID(t *testing.T) {
	f := NewIDFilter([]string{"p1", "p2", "p3"})

	// With three entries and a 0.1% target FPR a miss on a fixed probe is
	// effectively guaranteed.
	assert.False(t, f.MayContain("definitely-not-a-product"))
}

func TestIDFilter_NilIsPermissive(t *testing.T) {
	var f *IDFilter
	assert.True(t, f.MayContain("anything"))
}

func TestIDFilter_Empty(t *testing.T) {
	f := NewIDFilter(nil)
	assert.False(t, f.MayContain("p1"))
}
