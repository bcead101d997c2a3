package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/notedrill/internal/audio"
	"github.com/0xlemi/notedrill/internal/pitch"
	"github.com/0xlemi/notedrill/internal/session"
)

// fakeCapturer hands back a programmable frame; tests swap the frame (or an
// error) between steps.
type fakeCapturer struct {
	mu        sync.Mutex
	capturing bool
	startErr  error
	frame     audio.Frame
	frameErr  error
}

func (f *fakeCapturer) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.capturing = true
	return nil
}

func (f *fakeCapturer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capturing = false
	return nil
}

func (f *fakeCapturer) IsCapturing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.capturing
}

func (f *fakeCapturer) Frame() (audio.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frameErr != nil {
		return audio.Frame{}, f.frameErr
	}
	return f.frame, nil
}

func (f *fakeCapturer) setTone(freq float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = sineFrame(freq, 44100, 2048, 0.5)
}

func (f *fakeCapturer) setSilence() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame = audio.Frame{Samples: make([]float32, 2048), SampleRate: 44100}
}

func sineFrame(freq float64, sampleRate, n int, amp float64) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return audio.Frame{Samples: samples, SampleRate: sampleRate}
}

// updateLog collects sink updates across goroutines.
type updateLog struct {
	mu      sync.Mutex
	updates []Update
}

func (u *updateLog) sink(upd Update) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updates = append(u.updates, upd)
}

func (u *updateLog) last(t *testing.T) Update {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.updates)
	return u.updates[len(u.updates)-1]
}

func (u *updateLog) all() []Update {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Update, len(u.updates))
	copy(out, u.updates)
	return out
}

func testLoop(t *testing.T, catalogNotes ...string) (*Loop, *fakeCapturer, *session.Practice, *updateLog) {
	t.Helper()
	catalog, err := pitch.NewCatalog(catalogNotes...)
	require.NoError(t, err)

	practice := session.NewPractice(catalog)
	practice.SetRand(rand.New(rand.NewPCG(7, 11)))

	mic := &fakeCapturer{}
	log := &updateLog{}

	cfg := DefaultConfig()
	cfg.RequiredFrames = 3
	loop := New(cfg, mic, pitch.NewChain(cfg.FrameSize, cfg.SampleRate), practice, log.sink)
	return loop, mic, practice, log
}

func TestStepIdleWithoutTarget(t *testing.T) {
	loop, _, _, log := testLoop(t, "A4")

	loop.Step()

	assert.Equal(t, ListenIdle, log.last(t).Status)
}

func TestStepConfirmsSustainedPitch(t *testing.T) {
	loop, mic, practice, log := testLoop(t, "A4")
	require.NoError(t, practice.Start(1))

	mic.setTone(440)
	loop.Step()
	loop.Step()
	assert.Equal(t, Listening, log.last(t).Status)
	assert.Equal(t, 2, log.last(t).Stability)

	loop.Step()

	upd := log.last(t)
	assert.Equal(t, Matched, upd.Status)
	assert.InDelta(t, 440, upd.Estimate.Frequency, 5)
	assert.Equal(t, session.StatusCompleted, practice.Status())
}

func TestStepOffPitchNeverConfirms(t *testing.T) {
	loop, mic, practice, _ := testLoop(t, "A4")
	require.NoError(t, practice.Start(1))

	// G4, almost two semitones below the A4 target.
	mic.setTone(392)
	for i := 0; i < 10; i++ {
		loop.Step()
	}

	assert.Equal(t, session.StatusActive, practice.Status())
}

func TestStepSilenceDecaysStability(t *testing.T) {
	loop, mic, practice, log := testLoop(t, "A4")
	require.NoError(t, practice.Start(1))

	mic.setTone(440)
	loop.Step()
	loop.Step()
	require.Equal(t, 2, log.last(t).Stability)

	mic.setSilence()
	loop.Step()

	// The run is gone; two more on-pitch frames are not enough.
	mic.setTone(440)
	loop.Step()
	loop.Step()
	assert.Equal(t, 2, log.last(t).Stability)
	assert.Equal(t, session.StatusActive, practice.Status())

	loop.Step()
	assert.Equal(t, session.StatusCompleted, practice.Status())
}

func TestStepFrameErrorCountsAsMiss(t *testing.T) {
	loop, mic, practice, log := testLoop(t, "A4")
	require.NoError(t, practice.Start(1))

	mic.setTone(440)
	loop.Step()
	loop.Step()

	mic.mu.Lock()
	mic.frameErr = audio.ErrNotCapturing
	mic.mu.Unlock()
	loop.Step()
	assert.Equal(t, Listening, log.last(t).Status)

	mic.mu.Lock()
	mic.frameErr = nil
	mic.mu.Unlock()
	loop.Step()
	loop.Step()
	assert.Equal(t, session.StatusActive, practice.Status())
}

func TestStepTargetChangeResetsStability(t *testing.T) {
	loop, mic, practice, log := testLoop(t, "A4", "E4")
	require.NoError(t, practice.Start(2))

	note, ok := practice.CurrentTarget()
	require.True(t, ok)
	mic.setTone(note.Frequency)
	loop.Step()
	loop.Step()
	require.Equal(t, 2, log.last(t).Stability)

	// Operator skips to the next position; the run must not carry over even
	// if the same note is drawn again.
	require.NoError(t, practice.Skip())
	next, ok := practice.CurrentTarget()
	require.True(t, ok)
	mic.setTone(next.Frequency)
	loop.Step()

	assert.Equal(t, 1, log.last(t).Stability)
}

func TestRunCaptureUnavailableStopsSession(t *testing.T) {
	loop, mic, practice, log := testLoop(t, "A4")
	mic.startErr = audio.ErrCaptureUnavailable
	require.NoError(t, practice.Start(1))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, loop.Run(ctx))

	assert.Equal(t, session.StatusIdle, practice.Status())

	var sawErr bool
	for _, upd := range log.all() {
		if upd.Err != nil {
			sawErr = true
			// The capturer's error reaches the sink as-is, not rewrapped.
			assert.Equal(t, audio.ErrCaptureUnavailable, upd.Err)
		}
	}
	assert.True(t, sawErr, "expected a capture error update")
}

func TestRunReleasesCapturerWhenSessionStops(t *testing.T) {
	loop, mic, practice, _ := testLoop(t, "A4")
	mic.setTone(440)
	cfgTick := 5 * time.Millisecond
	loop.cfg.TickInterval = cfgTick
	require.NoError(t, practice.Start(5))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, mic.IsCapturing, time.Second, cfgTick)

	practice.Stop()
	require.Eventually(t, func() bool { return !mic.IsCapturing() }, time.Second, cfgTick)

	cancel()
	require.NoError(t, <-done)
}
