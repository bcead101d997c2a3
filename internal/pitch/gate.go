package pitch

import "github.com/0xlemi/notedrill/internal/audio"

// DefaultGateFloor rejects room noise and mic hiss while still letting a
// quiet sustained tone through. Calibration constant, not derived.
const DefaultGateFloor = 0.01

// NoiseGate discards frames whose energy is below a fixed RMS floor before
// any estimation runs, so silence never produces a false positive.
type NoiseGate struct {
	Floor float64 // minimum RMS for a frame to pass
}

// NewNoiseGate creates a gate with the default floor.
func NewNoiseGate() NoiseGate {
	return NoiseGate{Floor: DefaultGateFloor}
}

// Passes reports whether the frame carries enough energy to be worth
// estimating. Pure function of the frame.
func (g NoiseGate) Passes(frame audio.Frame) bool {
	if len(frame.Samples) == 0 {
		return false
	}
	return frame.RMS() >= g.Floor
}
