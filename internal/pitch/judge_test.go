package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func voiced(freq, clarity float64) Estimate {
	return Estimate{Frequency: freq, Clarity: clarity, Voiced: true}
}

func TestJudgeWithinTolerance(t *testing.T) {
	j := Judge{ToleranceCents: 30, MinClarity: 0.9}

	assert.True(t, j.OnPitch(voiced(440, 0.99), 440))
	assert.True(t, j.OnPitch(voiced(441, 0.99), 440))  // ~+3.9 cents
	assert.True(t, j.OnPitch(voiced(433.5, 0.99), 440)) // ~-25.8 cents
	assert.False(t, j.OnPitch(voiced(450, 0.99), 440)) // ~+38.9 cents
	assert.False(t, j.OnPitch(voiced(880, 0.99), 440)) // octave off
}

func TestJudgeBoundaryIsStrict(t *testing.T) {
	// Tolerance set to the exact cents deviation of 441 vs 440: the same
	// computation runs in OnPitch, so equality holds exactly and strict
	// less-than must reject it.
	boundary := Cents(441, 440)
	j := Judge{ToleranceCents: boundary, MinClarity: 0.9}

	assert.False(t, j.OnPitch(voiced(441, 0.99), 440))
	assert.True(t, j.OnPitch(voiced(440.5, 0.99), 440))
}

func TestJudgeClarityFloor(t *testing.T) {
	j := Judge{ToleranceCents: 30, MinClarity: 0.95}

	assert.False(t, j.OnPitch(voiced(440, 0.94), 440))
	assert.True(t, j.OnPitch(voiced(440, 0.95), 440))
}

func TestJudgeUnvoicedNeverMatches(t *testing.T) {
	j := NewJudge()

	assert.False(t, j.OnPitch(Unvoiced(), 440))
	assert.False(t, j.OnPitch(Estimate{Frequency: 440, Clarity: 1}, 440)) // Voiced unset
}

func TestCents(t *testing.T) {
	assert.InDelta(t, 0.0, Cents(440, 440), 1e-12)
	assert.InDelta(t, 1200.0, Cents(880, 440), 1e-9)
	assert.InDelta(t, -1200.0, Cents(220, 440), 1e-9)
	assert.InDelta(t, 100.0, Cents(MIDIToFrequency(70), MIDIToFrequency(69)), 1e-9)
}
