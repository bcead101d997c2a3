package pitch

import "math"

// Default judging knobs. The stricter of the two historical tunings of this
// trainer: 30-cent tolerance with a high clarity floor keeps ambient noise
// from registering as a match, at the cost of demanding a cleanly produced
// tone. Both are exposed on the Judge and on the CLI.
const (
	DefaultToleranceCents = 30.0
	DefaultMinClarity     = 0.95
)

// Cents returns the logarithmic pitch distance from target to f.
// 100 cents is one semitone.
func Cents(f, target float64) float64 {
	return 1200 * math.Log2(f/target)
}

// Judge converts a per-frame estimate into an on-pitch verdict against a
// target frequency.
type Judge struct {
	ToleranceCents float64 // strict bound on |cents| deviation
	MinClarity     float64 // estimates below this confidence never match
}

// NewJudge creates a judge with the default tuning.
func NewJudge() Judge {
	return Judge{
		ToleranceCents: DefaultToleranceCents,
		MinClarity:     DefaultMinClarity,
	}
}

// OnPitch reports whether the estimate counts as on-pitch for targetHz.
// Unvoiced or low-clarity estimates are never on-pitch; otherwise the
// verdict is |cents| strictly less than the tolerance, so a deviation of
// exactly the tolerance is off-pitch.
func (j Judge) OnPitch(est Estimate, targetHz float64) bool {
	if !est.Voiced || est.Clarity < j.MinClarity {
		return false
	}
	if est.Frequency <= 0 || targetHz <= 0 {
		return false
	}
	return math.Abs(Cents(est.Frequency, targetHz)) < j.ToleranceCents
}
