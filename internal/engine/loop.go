package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/0xlemi/notedrill/internal/audio"
	"github.com/0xlemi/notedrill/internal/pitch"
	"github.com/0xlemi/notedrill/internal/session"
)

// ListenStatus is the coarse signal the presentation layer renders while
// the engine is (or is not) judging frames.
type ListenStatus int

const (
	ListenIdle ListenStatus = iota
	Listening
	Matched
)

func (s ListenStatus) String() string {
	switch s {
	case Listening:
		return "listening"
	case Matched:
		return "matched"
	default:
		return "idle"
	}
}

// Update is the per-tick report pushed to the presentation sink. Transient
// no-pitch / not-yet-matched states carry no error; only a failed capture
// acquisition sets Err.
type Update struct {
	Status    ListenStatus
	Estimate  pitch.Estimate
	Cents     float64 // deviation from the current target, valid when Estimate.Voiced
	RMS       float64
	DB        float64
	Stability int // consecutive on-pitch frames so far
	Err       error
}

// Config carries the pipeline tuning. Zero values are filled in by
// DefaultConfig.
type Config struct {
	FrameSize      int
	SampleRate     int
	TickInterval   time.Duration // cadence frames are pulled at (~display refresh)
	Gate           pitch.NoiseGate
	Judge          pitch.Judge
	RequiredFrames int
	Logger         *slog.Logger
}

// DefaultConfig returns the production tuning: 2048-sample frames at
// 44.1 kHz pulled at roughly 60 Hz.
func DefaultConfig() Config {
	return Config{
		FrameSize:      2048,
		SampleRate:     44100,
		TickInterval:   16 * time.Millisecond,
		Gate:           pitch.NewNoiseGate(),
		Judge:          pitch.NewJudge(),
		RequiredFrames: session.DefaultRequiredFrames,
		Logger:         slog.Default(),
	}
}

// Loop is the only continuously running actor. Each tick it threads the
// latest frame through NoiseGate -> FrequencyEstimator -> MatchJudge ->
// StabilityFilter and feeds confirmed matches into the practice session.
//
// Single-owner discipline: the loop is the sole mutator of the stability
// filter and the sole reader of the session's current target; the session
// alone mutates sequence state.
type Loop struct {
	cfg       Config
	capturer  audio.Capturer
	estimator pitch.Estimator
	practice  *session.Practice
	stability *session.StabilityFilter
	sink      func(Update)
	logger    *slog.Logger

	// lastTarget keys the stability scope: any change of sequence position
	// or note resets the filter before the next frame is counted.
	lastTarget string
}

// New wires a capture loop. sink may be nil.
func New(cfg Config, capturer audio.Capturer, estimator pitch.Estimator, practice *session.Practice, sink func(Update)) *Loop {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if sink == nil {
		sink = func(Update) {}
	}
	return &Loop{
		cfg:       cfg,
		capturer:  capturer,
		estimator: estimator,
		practice:  practice,
		stability: session.NewStabilityFilter(cfg.RequiredFrames),
		sink:      sink,
		logger:    cfg.Logger,
	}
}

// Run drives Step at the configured cadence until ctx is cancelled. The
// input stream is acquired only while the session is active and released as
// soon as it leaves active, so a stopped session holds no audio handle.
//
// A failed acquisition is terminal for the session attempt: the error is
// surfaced through the sink, the session is stopped, and no automatic retry
// happens until the operator starts a new session.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()
	defer l.release()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if l.practice.Status() != session.StatusActive {
				l.release()
				continue
			}
			if !l.capturer.IsCapturing() {
				if err := l.capturer.Start(); err != nil {
					l.logger.Error("engine: capture unavailable", "err", err)
					l.practice.Stop()
					l.sink(Update{Status: ListenIdle, Err: err})
					continue
				}
				l.logger.Info("engine: capture started",
					"frame_size", l.cfg.FrameSize, "sample_rate", l.cfg.SampleRate)
			}
			l.Step()
		}
	}
}

// Step processes one frame against the current target. Exported so tests
// can drive the pipeline without a ticker.
func (l *Loop) Step() {
	target, ok := l.practice.CurrentTarget()
	if !ok {
		l.stability.Reset()
		l.lastTarget = ""
		l.sink(Update{Status: ListenIdle})
		return
	}

	key := fmt.Sprintf("%d/%s", l.practice.Index(), target.ID())
	if key != l.lastTarget {
		l.stability.Reset()
		l.lastTarget = key
	}

	frame, err := l.capturer.Frame()
	if err != nil {
		l.logger.Warn("engine: no frame available", "err", err)
		l.stability.Observe(false)
		l.sink(Update{Status: Listening})
		return
	}

	rms, db := frame.Level()
	upd := Update{Status: Listening, RMS: rms, DB: db}

	// Gated and unvoiced frames still count against stability: silence
	// must decay a run, not freeze it.
	if !l.cfg.Gate.Passes(frame) {
		l.stability.Observe(false)
		l.sink(upd)
		return
	}

	est, err := l.estimator.Estimate(frame)
	if err != nil {
		// Frame-contract violation; the pipeline geometry is fixed at
		// construction so this never recovers by itself.
		l.logger.Error("engine: estimator rejected frame", "err", err, "len", len(frame.Samples))
		l.stability.Observe(false)
		l.sink(upd)
		return
	}
	if !est.Voiced {
		l.stability.Observe(false)
		l.sink(upd)
		return
	}

	upd.Estimate = est
	upd.Cents = pitch.Cents(est.Frequency, target.Frequency)

	onPitch := l.cfg.Judge.OnPitch(est, target.Frequency)
	verdict := l.stability.Observe(onPitch)
	upd.Stability = l.stability.Count()

	if verdict == session.Confirmed {
		upd.Status = Matched
		l.logger.Info("engine: match confirmed",
			"note", target.ID(), "freq", est.Frequency, "clarity", est.Clarity)
		if err := l.practice.ConfirmMatch(); err != nil {
			// Defensive policy for contract violations: warn and carry on.
			if errors.Is(err, session.ErrInvalidTransition) {
				l.logger.Warn("engine: confirm on inactive session", "err", err)
			}
		}
		l.stability.Reset()
	}

	l.sink(upd)
}

func (l *Loop) release() {
	if l.capturer.IsCapturing() {
		if err := l.capturer.Stop(); err != nil {
			l.logger.Warn("engine: capture stop failed", "err", err)
			return
		}
		l.logger.Info("engine: capture released")
	}
}
