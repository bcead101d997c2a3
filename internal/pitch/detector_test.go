package pitch

import (
	"errors"
	"math"
	"testing"

	"github.com/0xlemi/notedrill/internal/audio"
)

// sineFrame generates one frame of a pure sine wave.
func sineFrame(freq float64, sampleRate, n int, amp float64) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return audio.Frame{Samples: samples, SampleRate: sampleRate}
}

func TestAutocorrEstimatorSine(t *testing.T) {
	e := NewAutocorrEstimator(2048, 44100)

	for _, freq := range []float64{110, 220, 440, 880} {
		est, err := e.Estimate(sineFrame(freq, 44100, 2048, 0.8))
		if err != nil {
			t.Fatalf("%v Hz: unexpected error: %v", freq, err)
		}
		if !est.Voiced {
			t.Fatalf("%v Hz: expected voiced estimate", freq)
		}
		if math.Abs(est.Frequency-freq) > freq*0.01 {
			t.Errorf("%v Hz: estimate %.2f off by more than 1%%", freq, est.Frequency)
		}
		if est.Clarity < DefaultMinClarity {
			t.Errorf("%v Hz: clarity %.3f below matching threshold %.2f", freq, est.Clarity, DefaultMinClarity)
		}
	}
}

func TestAutocorrEstimatorSilence(t *testing.T) {
	e := NewAutocorrEstimator(2048, 44100)

	est, err := e.Estimate(audio.Frame{Samples: make([]float32, 2048), SampleRate: 44100})
	if err != nil {
		t.Fatalf("silence must not be an error, got %v", err)
	}
	if est.Voiced {
		t.Fatalf("silence produced a voiced estimate: %+v", est)
	}
}

func TestSpectralEstimatorSine(t *testing.T) {
	e := NewSpectralEstimator(2048)

	est, err := e.Estimate(sineFrame(440, 44100, 2048, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !est.Voiced {
		t.Fatal("expected voiced estimate")
	}
	if math.Abs(est.Frequency-440) > 4.4 {
		t.Errorf("estimate %.2f off by more than 1%%", est.Frequency)
	}
}

func TestSpectralEstimatorSilence(t *testing.T) {
	e := NewSpectralEstimator(2048)

	est, err := e.Estimate(audio.Frame{Samples: make([]float32, 2048), SampleRate: 44100})
	if err != nil {
		t.Fatalf("silence must not be an error, got %v", err)
	}
	if est.Voiced {
		t.Fatalf("silence produced a voiced estimate: %+v", est)
	}
}

func TestChainPrefersAutocorrOnCleanTone(t *testing.T) {
	c := NewChain(2048, 44100)

	est, err := c.Estimate(sineFrame(440, 44100, 2048, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !est.Voiced {
		t.Fatal("expected voiced estimate")
	}
	// A clean tone clears the primary threshold, so the chain reports the
	// autocorrelation clarity, not the spectral one.
	if est.Clarity < c.PrimaryClarity {
		t.Errorf("clarity %.3f below primary threshold %.2f", est.Clarity, c.PrimaryClarity)
	}
	if math.Abs(est.Frequency-440) > 4.4 {
		t.Errorf("estimate %.2f off by more than 1%%", est.Frequency)
	}
}

func TestChainSilenceIsUnvoiced(t *testing.T) {
	c := NewChain(2048, 44100)

	est, err := c.Estimate(audio.Frame{Samples: make([]float32, 2048), SampleRate: 44100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Voiced {
		t.Fatalf("silence produced a voiced estimate: %+v", est)
	}
}

func TestEstimatorsRejectWrongFrameSize(t *testing.T) {
	frame := sineFrame(440, 44100, 1024, 0.8)

	if _, err := NewAutocorrEstimator(2048, 44100).Estimate(frame); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("autocorr: want ErrFrameSize, got %v", err)
	}
	if _, err := NewSpectralEstimator(2048).Estimate(frame); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("spectral: want ErrFrameSize, got %v", err)
	}
}
