package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioCapturer implements audio capture using PortAudio.
// The stream callback keeps overwriting a single mono buffer; Frame hands
// out snapshot copies so callers never share memory with the audio thread.
type PortAudioCapturer struct {
	isCapturing   bool
	stream        *portaudio.Stream
	latest        []float32
	frameSize     int
	sampleRate    int
	channels      int
	bufferMutex   sync.Mutex
	amplification float32
}

// NewPortAudioCapturer initializes PortAudio and prepares a capturer for
// fixed-size frames. Initialization failure is reported as
// ErrCaptureUnavailable so the session can surface one actionable message.
func NewPortAudioCapturer(frameSize, sampleRate, channels int) (*PortAudioCapturer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	return &PortAudioCapturer{
		latest:        make([]float32, 0, frameSize),
		frameSize:     frameSize,
		sampleRate:    sampleRate,
		channels:      channels,
		amplification: 1.0,
	}, nil
}

// Start opens and starts the default input stream.
func (c *PortAudioCapturer) Start() error {
	if c.isCapturing {
		return fmt.Errorf("audio capture already started")
	}

	var err error
	c.stream, err = portaudio.OpenDefaultStream(
		c.channels, // input channels
		0,          // no output
		float64(c.sampleRate),
		c.frameSize/c.channels, // frames per buffer
		c.processAudio,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	c.isCapturing = true
	return nil
}

// Stop stops and closes the stream and terminates PortAudio.
func (c *PortAudioCapturer) Stop() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}

	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	if err := portaudio.Terminate(); err != nil {
		return err
	}

	c.isCapturing = false
	return nil
}

// processAudio is the stream callback. Multi-channel input is averaged down
// to mono; amplification is applied in the same pass.
func (c *PortAudioCapturer) processAudio(in, _ []float32) {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	if c.channels > 1 {
		mono := make([]float32, len(in)/c.channels)
		for i := 0; i < len(mono); i++ {
			sum := float32(0)
			for ch := 0; ch < c.channels; ch++ {
				sum += in[i*c.channels+ch]
			}
			mono[i] = (sum / float32(c.channels)) * c.amplification
		}
		c.latest = mono
	} else {
		c.latest = make([]float32, len(in))
		for i, sample := range in {
			c.latest[i] = sample * c.amplification
		}
	}
}

// Frame returns a copy of the most recent frame.
func (c *PortAudioCapturer) Frame() (Frame, error) {
	if !c.isCapturing {
		return Frame{}, ErrNotCapturing
	}

	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	samples := make([]float32, len(c.latest))
	copy(samples, c.latest)

	return Frame{Samples: samples, SampleRate: c.sampleRate}, nil
}

// IsCapturing returns true if currently capturing audio.
func (c *PortAudioCapturer) IsCapturing() bool {
	return c.isCapturing
}

// SetAmplification sets the input gain applied inside the stream callback.
func (c *PortAudioCapturer) SetAmplification(factor float32) {
	c.bufferMutex.Lock()
	defer c.bufferMutex.Unlock()

	if factor < 0.1 {
		factor = 0.1
	}
	c.amplification = factor
}
