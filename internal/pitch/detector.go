package pitch

import (
	"errors"

	"github.com/0xlemi/notedrill/internal/audio"
)

// Errors
var (
	ErrEmptyFrame = errors.New("empty audio frame")
	// ErrFrameSize means the frame does not match the window size the
	// estimator was built for. The frame contract is fixed at pipeline
	// construction time, so this is a programming violation, not a
	// recoverable runtime condition.
	ErrFrameSize = errors.New("frame size does not match estimator window")
)

// Estimate is the per-frame output of a frequency estimator. Voiced=false
// means no discernible periodic signal was found; that is a normal outcome,
// not an error, and must never be conflated with capture failure.
type Estimate struct {
	Frequency float64 // fundamental in Hz, meaningful only when Voiced
	Clarity   float64 // confidence in [0,1]
	Voiced    bool
}

// Unvoiced is the estimate for a frame with no periodic energy.
func Unvoiced() Estimate {
	return Estimate{}
}

// Estimator finds the dominant periodicity of a monophonic sustained tone
// in one fixed-size frame.
type Estimator interface {
	Estimate(frame audio.Frame) (Estimate, error)
}

// Chain combines a selective primary estimator with a fallback.
//
// Precedence is deterministic: the primary (autocorrelation) estimate wins
// when it is voiced and its clarity reaches PrimaryClarity; otherwise the
// fallback (spectral peak) estimate is used when it is voiced and inside the
// supported band. Anything else is unvoiced.
type Chain struct {
	Primary        Estimator
	Fallback       Estimator
	PrimaryClarity float64 // strict clarity threshold for trusting Primary
}

// NewChain builds the default estimator chain for the given frame geometry:
// normalized autocorrelation first, FFT peak as fallback.
func NewChain(frameSize, sampleRate int) *Chain {
	return &Chain{
		Primary:        NewAutocorrEstimator(frameSize, sampleRate),
		Fallback:       NewSpectralEstimator(frameSize),
		PrimaryClarity: 0.90,
	}
}

// Estimate runs the chain on one frame.
func (c *Chain) Estimate(frame audio.Frame) (Estimate, error) {
	primary, err := c.Primary.Estimate(frame)
	if err != nil {
		return Unvoiced(), err
	}
	if primary.Voiced && primary.Clarity >= c.PrimaryClarity {
		return primary, nil
	}

	fallback, err := c.Fallback.Estimate(frame)
	if err != nil {
		return Unvoiced(), err
	}
	if fallback.Voiced && fallback.Frequency >= MinFrequency && fallback.Frequency <= MaxFrequency {
		return fallback, nil
	}

	// A weakly-correlated primary beats nothing at all.
	if primary.Voiced {
		return primary, nil
	}
	return Unvoiced(), nil
}
