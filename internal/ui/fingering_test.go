package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/notedrill/internal/pitch"
)

func TestFingeringChartCoversDefaultCatalog(t *testing.T) {
	catalog := pitch.DefaultCatalog()

	chart, err := NewFingeringChart(catalog)
	require.NoError(t, err)

	for _, n := range catalog.Notes() {
		hint, ok := chart.Hint(n)
		assert.True(t, ok, "no hint for %s", n.ID())
		assert.NotEmpty(t, hint)
	}
}

func TestFingeringChartRejectsUncoveredNote(t *testing.T) {
	// E5 is in the judgeable band but outside the beginner-octave chart.
	catalog, err := pitch.NewCatalog("C4", "E5")
	require.NoError(t, err)

	_, err = NewFingeringChart(catalog)
	assert.ErrorContains(t, err, "E5")
}
