// Package stats provides the significance test used to resolve
// two-variant experiments. Pure computation, no I/O.
package stats

import "math"

// Default test configuration constants.
const (
	// DefaultMinSampleSize is the minimum sends per variant before the
	// test can be significant at all.
	DefaultMinSampleSize = 30
	// DefaultZThreshold is the two-sided 95% significance threshold.
	DefaultZThreshold = 1.96

	significantConfidence = 95.0
	maxInterpConfidence   = 90.0
)

// TwoProportionResult is the outcome of comparing two observed rates.
type TwoProportionResult struct {
	IsSignificant bool
	// ZScore is the absolute test statistic (0 when the test degenerates).
	ZScore float64
	// Confidence is 95 when significant, otherwise an interpolated
	// observability value capped at 90.
	Confidence float64
	// AWins is true when rate A exceeds rate B. Meaningful only when
	// IsSignificant is true.
	AWins bool
	// Improvement is the winner's percentage lift over the loser, zero
	// when not significant.
	Improvement float64
}

// Option applies a configuration option to the TwoProportionTest.
type Option func(*TwoProportionTest)

// WithMinSampleSize sets the per-variant minimum sends.
func WithMinSampleSize(n int64) Option {
	return func(t *TwoProportionTest) {
		if n > 0 {
			t.minSampleSize = n
		}
	}
}

// WithZThreshold sets the significance threshold on the z statistic.
func WithZThreshold(z float64) Option {
	return func(t *TwoProportionTest) {
		if z > 0 {
			t.zThreshold = z
		}
	}
}

// TwoProportionTest runs a pooled two-proportion z-test.
type TwoProportionTest struct {
	minSampleSize int64
	zThreshold    float64
}

// NewTwoProportionTest creates a test with default thresholds.
func NewTwoProportionTest(opts ...Option) *TwoProportionTest {
	t := &TwoProportionTest{
		minSampleSize: DefaultMinSampleSize,
		zThreshold:    DefaultZThreshold,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Evaluate compares two observed success rates. nA and nB are the sample
// sizes (sends), rateA and rateB the observed rates for the primary
// metric. Undersized samples and degenerate pooled rates yield a defined
// not-significant result rather than an error.
func (t *TwoProportionTest) Evaluate(rateA float64, nA int64, rateB float64, nB int64) TwoProportionResult {
	if nA < t.minSampleSize || nB < t.minSampleSize {
		return TwoProportionResult{}
	}

	pooled := (rateA*float64(nA) + rateB*float64(nB)) / float64(nA+nB)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(nA) + 1/float64(nB)))
	if se == 0 {
		// All-zero or all-one rates on both sides; no detectable difference.
		return TwoProportionResult{}
	}

	z := math.Abs(rateA-rateB) / se
	res := TwoProportionResult{ZScore: z, AWins: rateA > rateB}

	if z > t.zThreshold {
		res.IsSignificant = true
		res.Confidence = significantConfidence
		res.Improvement = improvement(rateA, rateB)
		return res
	}

	res.Confidence = math.Min(maxInterpConfidence, math.Round(z/t.zThreshold*significantConfidence))
	return res
}

// improvement returns the winner's percentage lift over the loser.
func improvement(rateA, rateB float64) float64 {
	winner, loser := rateA, rateB
	if rateB > rateA {
		winner, loser = rateB, rateA
	}
	if loser == 0 {
		return 0
	}
	return (winner - loser) / loser * 100
}
