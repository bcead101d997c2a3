package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/0xlemi/notedrill/internal/audio"
)

// SpectralEstimator finds the fundamental as the strongest magnitude peak
// in the Hann-windowed FFT of the frame, refined by quadratic interpolation
// across the neighbouring bins. Clarity is the fraction of in-band spectral
// mass concentrated around the winning peak, so a clean sustained tone
// scores high and broadband noise scores low.
type SpectralEstimator struct {
	frameSize int
	hann      []float64

	// MinClarity is the voicing threshold for the spectral path.
	MinClarity float64
}

// NewSpectralEstimator creates an estimator for the given frame size.
func NewSpectralEstimator(frameSize int) *SpectralEstimator {
	return &SpectralEstimator{
		frameSize:  frameSize,
		hann:       window.Hann(frameSize),
		MinClarity: 0.5,
	}
}

// Estimate analyzes one frame.
func (e *SpectralEstimator) Estimate(frame audio.Frame) (Estimate, error) {
	if len(frame.Samples) == 0 {
		return Unvoiced(), ErrEmptyFrame
	}
	if len(frame.Samples) != e.frameSize {
		return Unvoiced(), ErrFrameSize
	}

	windowed := make([]float64, e.frameSize)
	for i, s := range frame.Samples {
		windowed[i] = float64(s) * e.hann[i]
	}

	spectrum := fft.FFTReal(windowed)
	half := spectrum[:len(spectrum)/2]
	binHz := float64(frame.SampleRate) / float64(len(spectrum))

	minBin := int(MinFrequency / binHz)
	if minBin < 1 {
		minBin = 1 // skip DC
	}
	maxBin := int(MaxFrequency / binHz)
	if maxBin >= len(half)-1 {
		maxBin = len(half) - 2
	}
	if minBin >= maxBin {
		return Unvoiced(), nil
	}

	peakBin := -1
	peakMag := 0.0
	totalMass := 0.0
	for i := minBin; i <= maxBin; i++ {
		m := cmplx.Abs(half[i])
		totalMass += m
		if m > peakMag {
			peakMag = m
			peakBin = i
		}
	}
	if peakBin < 0 || totalMass == 0 {
		return Unvoiced(), nil
	}

	prev := cmplx.Abs(half[peakBin-1])
	next := cmplx.Abs(half[peakBin+1])
	freq := (float64(peakBin) + peakOffset(prev, peakMag, next)) * binHz
	if freq < MinFrequency || freq > MaxFrequency {
		return Unvoiced(), nil
	}

	clarity := math.Min((prev+peakMag+next)/totalMass, 1.0)
	if clarity < e.MinClarity {
		return Unvoiced(), nil
	}

	return Estimate{Frequency: freq, Clarity: clarity, Voiced: true}, nil
}
