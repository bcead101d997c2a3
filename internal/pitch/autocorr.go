package pitch

import (
	"gonum.org/v1/gonum/floats"

	"github.com/0xlemi/notedrill/internal/audio"
)

// AutocorrEstimator finds the fundamental by normalized autocorrelation:
// for each candidate lag in the band for MinFrequency..MaxFrequency it
// computes 2*acf/(m1+m2) (the normalized square-difference form, bounded to
// [-1,1]) and takes the first local maximum above MinCorrelation. The lag is
// refined by parabolic interpolation before conversion to Hz.
//
// Scanning from the shortest lag up and stopping at the first qualifying
// peak avoids the octave-down errors a global maximum is prone to, since a
// periodic signal correlates equally well at every multiple of its period.
type AutocorrEstimator struct {
	frameSize  int
	sampleRate int
	minLag     int
	maxLag     int

	// MinCorrelation is the voicing threshold: when no lag correlates at
	// least this well, the frame is reported unvoiced.
	MinCorrelation float64

	mean []float64 // scratch buffer, mean-removed samples
}

// NewAutocorrEstimator creates an estimator for the given frame geometry.
func NewAutocorrEstimator(frameSize, sampleRate int) *AutocorrEstimator {
	minLag := int(float64(sampleRate) / MaxFrequency)
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(float64(sampleRate) / MinFrequency)
	if maxLag > frameSize/2 {
		maxLag = frameSize / 2
	}

	return &AutocorrEstimator{
		frameSize:      frameSize,
		sampleRate:     sampleRate,
		minLag:         minLag,
		maxLag:         maxLag,
		MinCorrelation: 0.5,
		mean:           make([]float64, frameSize),
	}
}

// Estimate analyzes one frame. A frame with no periodic energy yields an
// unvoiced estimate, never an error.
func (e *AutocorrEstimator) Estimate(frame audio.Frame) (Estimate, error) {
	if len(frame.Samples) == 0 {
		return Unvoiced(), ErrEmptyFrame
	}
	if len(frame.Samples) != e.frameSize {
		return Unvoiced(), ErrFrameSize
	}

	// Remove DC so a biased mic signal does not swamp the correlation.
	sum := 0.0
	for _, s := range frame.Samples {
		sum += float64(s)
	}
	mean := sum / float64(len(frame.Samples))
	x := e.mean
	for i, s := range frame.Samples {
		x[i] = float64(s) - mean
	}

	corr := make([]float64, e.maxLag-e.minLag+3)
	for lag := e.minLag - 1; lag <= e.maxLag+1 && lag < len(x); lag++ {
		head := x[:len(x)-lag]
		tail := x[lag:]
		acf := floats.Dot(head, tail)
		m1 := floats.Dot(head, head)
		m2 := floats.Dot(tail, tail)
		if m1+m2 > 0 {
			corr[lag-e.minLag+1] = 2 * acf / (m1 + m2)
		}
	}

	// First local maximum at or above the threshold wins.
	for i := 1; i < len(corr)-1; i++ {
		c := corr[i]
		if c < e.MinCorrelation || c < corr[i-1] || c < corr[i+1] {
			continue
		}
		lag := float64(i+e.minLag-1) + peakOffset(corr[i-1], c, corr[i+1])
		freq := float64(e.sampleRate) / lag
		if freq < MinFrequency || freq > MaxFrequency {
			continue
		}
		clarity := c
		if clarity > 1 {
			clarity = 1
		}
		return Estimate{Frequency: freq, Clarity: clarity, Voiced: true}, nil
	}

	return Unvoiced(), nil
}

// peakOffset refines a peak position by parabolic interpolation through the
// neighbouring values, returning a fractional offset in (-0.5, 0.5).
func peakOffset(prev, peak, next float64) float64 {
	denom := prev - 2*peak + next
	if denom == 0 {
		return 0
	}
	return 0.5 * (prev - next) / denom
}
