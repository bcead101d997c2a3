package ui

import (
	"fmt"

	"github.com/0xlemi/notedrill/internal/pitch"
)

// FingeringChart maps note identifiers to a rendered hole pattern for a
// recorder-style instrument (thumb + seven holes, ● closed / ◐ half /
// ○ open). The chart is validated against the catalog at construction:
// a note the chart cannot hint is a startup error, never a silent blank.
type FingeringChart struct {
	hints map[string]string
}

// Soprano-recorder style patterns for the beginner octave.
var defaultFingerings = map[string]string{
	"C4":  "● ●●●●●●●",
	"C#4": "● ●●●●●●◐",
	"D4":  "● ●●●●●●○",
	"D#4": "● ●●●●●◐○",
	"E4":  "● ●●●●●○○",
	"F4":  "● ●●●●○●●",
	"F#4": "● ●●●○●●○",
	"G4":  "● ●●●○○○○",
	"G#4": "● ●●○●●○○",
	"A4":  "● ●●○○○○○",
	"A#4": "● ●○●●○○○",
	"B4":  "● ●○○○○○○",
	"C5":  "● ○●○○○○○",
}

// NewFingeringChart builds the default chart, rejecting any catalog note
// without a pattern.
func NewFingeringChart(catalog *pitch.Catalog) (FingeringChart, error) {
	hints := make(map[string]string, catalog.Len())
	for _, n := range catalog.Notes() {
		h, ok := defaultFingerings[n.ID()]
		if !ok {
			return FingeringChart{}, fmt.Errorf("no fingering for catalog note %s", n.ID())
		}
		hints[n.ID()] = h
	}
	return FingeringChart{hints: hints}, nil
}

// Hint returns the pattern for a note.
func (c FingeringChart) Hint(n pitch.Note) (string, bool) {
	h, ok := c.hints[n.ID()]
	return h, ok
}
