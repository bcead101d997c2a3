package audio

import (
	"errors"
	"math"
)

// Errors
var (
	// ErrCaptureUnavailable means the input device could not be acquired
	// (permission denied, no device). It is terminal for the session attempt
	// and must never be conflated with a frame that simply contains no pitch.
	ErrCaptureUnavailable = errors.New("audio input unavailable")

	// ErrNotCapturing is returned when a frame is requested from a capturer
	// that has not been started (or has already been stopped).
	ErrNotCapturing = errors.New("audio capture not started")
)

// Frame is one fixed-size window of mono time-domain samples, values
// nominally in [-1, 1], plus the rate they were captured at.
type Frame struct {
	Samples    []float32
	SampleRate int
}

// RMS returns the root-mean-square energy of the frame's samples.
func (f Frame) RMS() float64 {
	if len(f.Samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range f.Samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(f.Samples)))
}

// Level returns the frame's RMS energy and its dB equivalent.
func (f Frame) Level() (rms, db float64) {
	rms = f.RMS()
	// Avoid log(0)
	if rms > 0.0000001 {
		db = 20 * math.Log10(rms)
	} else {
		db = -100
	}
	return rms, db
}

// Capturer defines the interface for acquiring live audio input.
// Acquisition is an explicit step with a failure outcome; per-frame reads
// never block on device availability.
type Capturer interface {
	// Start acquires the input stream. Fails with ErrCaptureUnavailable
	// when no device can be opened.
	Start() error

	// Stop releases the input stream.
	Stop() error

	// Frame returns a snapshot of the most recent frame.
	Frame() (Frame, error)

	// IsCapturing reports whether the stream is live.
	IsCapturing() bool
}
