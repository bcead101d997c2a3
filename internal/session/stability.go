package session

// DefaultRequiredFrames is how many consecutive on-pitch frames confirm a
// match. The stricter historical tuning: one noisy frame must never count,
// and at ~60 frames/s four frames still feels immediate to the player.
const DefaultRequiredFrames = 4

// Verdict is the per-frame output of the stability filter.
type Verdict int

const (
	Pending Verdict = iota
	Confirmed
)

func (v Verdict) String() string {
	if v == Confirmed {
		return "confirmed"
	}
	return "pending"
}

// StabilityFilter debounces per-frame on-pitch verdicts: a match is only
// confirmed after the required number of consecutive on-pitch frames, so
// one-frame flukes and brief spikes never advance the session.
//
// The counter is always scoped to exactly one target: callers must Reset
// whenever the target note changes. A Confirmed verdict zeroes the counter
// itself, so a confirmation can never be double-counted.
type StabilityFilter struct {
	required int
	count    int
}

// NewStabilityFilter creates a filter requiring the given run length.
// Values below 1 are clamped to 1.
func NewStabilityFilter(required int) *StabilityFilter {
	if required < 1 {
		required = 1
	}
	return &StabilityFilter{required: required}
}

// Observe feeds one frame verdict. Off-pitch frames (including gated or
// unvoiced ones) zero the run, so silence decays stability rather than
// freezing it.
func (f *StabilityFilter) Observe(onPitch bool) Verdict {
	if !onPitch {
		f.count = 0
		return Pending
	}
	f.count++
	if f.count >= f.required {
		f.count = 0
		return Confirmed
	}
	return Pending
}

// Reset zeroes the run. Call on every target change so stale counts never
// leak into a new target.
func (f *StabilityFilter) Reset() {
	f.count = 0
}

// Count returns the current consecutive on-pitch run length.
func (f *StabilityFilter) Count() int {
	return f.count
}

// Required returns the configured run length.
func (f *StabilityFilter) Required() int {
	return f.required
}
