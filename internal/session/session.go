package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/0xlemi/notedrill/internal/pitch"
)

// Sequence length bounds exposed to the UI.
const (
	MinLength = 1
	MaxLength = 5
)

// Errors
var (
	// ErrInvalidTransition means a transition was requested in a state where
	// it is not defined (e.g. Skip while idle). This is a caller contract
	// violation; the chosen policy is defensive: the operation is a no-op,
	// the error is returned, and callers log a warning and carry on.
	ErrInvalidTransition = errors.New("transition not valid in current state")
	ErrSequenceLength    = fmt.Errorf("sequence length must be %d..%d", MinLength, MaxLength)
)

// Status is the practice state machine's current state.
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Practice owns the queue of target notes and the transitions driven by
// confirmed matches and operator skips. It is the sole mutator of its
// sequence state; the capture loop reads the current target and reports
// confirmations, the UI starts, skips, and stops. Those arrive on different
// goroutines, so all state is mutex-guarded and callbacks fire outside the
// lock.
type Practice struct {
	mu      sync.Mutex
	catalog *pitch.Catalog
	rng     *rand.Rand
	status  Status
	targets []pitch.Note
	index   int

	onTarget    func(note pitch.Note, index int)
	onCompleted func()
}

// NewPractice creates an idle session drawing from the given catalog.
func NewPractice(catalog *pitch.Catalog) *Practice {
	seed := uint64(time.Now().UnixNano())
	return &Practice{
		catalog: catalog,
		rng:     rand.New(rand.NewPCG(seed, seed>>32)),
	}
}

// SetRand replaces the random source; tests use this for determinism.
func (p *Practice) SetRand(r *rand.Rand) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng = r
}

// OnTargetChanged registers the callback fired whenever a new note becomes
// the current target (including the first note of a fresh sequence).
func (p *Practice) OnTargetChanged(fn func(note pitch.Note, index int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTarget = fn
}

// OnCompleted registers the callback fired when the last note is confirmed.
func (p *Practice) OnCompleted(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCompleted = fn
}

// Start draws length notes uniformly at random with replacement and
// activates the session. Only valid from idle.
func (p *Practice) Start(length int) error {
	p.mu.Lock()
	if p.status != StatusIdle {
		p.mu.Unlock()
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, p.status)
	}
	if length < MinLength || length > MaxLength {
		p.mu.Unlock()
		return fmt.Errorf("%w: got %d", ErrSequenceLength, length)
	}

	p.targets = make([]pitch.Note, length)
	for i := range p.targets {
		p.targets[i] = p.catalog.At(p.rng.IntN(p.catalog.Len()))
	}
	p.index = 0
	p.status = StatusActive
	fn, first := p.onTarget, p.targets[0]
	p.mu.Unlock()

	if fn != nil {
		fn(first, 0)
	}
	return nil
}

// ConfirmMatch advances past the current target after a confirmed pitch
// match. Only valid while active; the caller (the capture loop) must reset
// its stability filter before judging frames against the new target.
func (p *Practice) ConfirmMatch() error {
	return p.advance("confirm")
}

// Skip is the operator-initiated equivalent of a confirmed match.
func (p *Practice) Skip() error {
	return p.advance("skip")
}

func (p *Practice) advance(op string) error {
	p.mu.Lock()
	if p.status != StatusActive {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, p.status)
	}

	if p.index == len(p.targets)-1 {
		p.status = StatusCompleted
		fn := p.onCompleted
		p.mu.Unlock()
		if fn != nil {
			fn()
		}
		return nil
	}

	p.index++
	fn, next, idx := p.onTarget, p.targets[p.index], p.index
	p.mu.Unlock()

	if fn != nil {
		fn(next, idx)
	}
	return nil
}

// Stop clears the queue and returns to idle. Valid from any state;
// stopping an idle session is a no-op.
func (p *Practice) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusIdle
	p.targets = nil
	p.index = 0
}

// CurrentTarget returns the live target note. ok is false while idle or
// completed.
func (p *Practice) CurrentTarget() (note pitch.Note, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusActive {
		return pitch.Note{}, false
	}
	return p.targets[p.index], true
}

// Status returns the current state.
func (p *Practice) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Index returns the position of the current target in the sequence.
func (p *Practice) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Targets returns a copy of the drawn sequence.
func (p *Practice) Targets() []pitch.Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pitch.Note, len(p.targets))
	copy(out, p.targets)
	return out
}
