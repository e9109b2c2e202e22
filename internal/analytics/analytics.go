// Package analytics aggregates match outcomes into success-rate,
// time-to-event, and attribute-correlation statistics. All computation
// is pure reads over the match store; the engine is re-entrant and never
// mutates records.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hirewire/matchcore/internal/adapters/repository"
	"github.com/hirewire/matchcore/internal/domain/model"
	"github.com/hirewire/matchcore/pkg/logger"
	"github.com/hirewire/matchcore/pkg/metrics"
)

// Thresholds for aggregate statistics.
const (
	// accurateScoreFloor is the overall score above which a match is
	// counted toward score accuracy.
	accurateScoreFloor = 80.0
	// minAttributeSample is the smallest attribute tally that earns an
	// insight string; below it the ratio would mislead.
	minAttributeSample = 5
)

// Bucketing selects the calendar granularity of a trend query.
type Bucketing string

// Supported trend bucketings.
const (
	BucketDay   Bucketing = "day"
	BucketWeek  Bucketing = "week"
	BucketMonth Bucketing = "month"
)

// TimeRange bounds a query. Zero values mean unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// ScoreAverages carries mean component scores for one outcome bucket.
type ScoreAverages struct {
	Overall   float64 `json:"overall"`
	Technical float64 `json:"technical"`
	Culture   float64 `json:"culture"`
	Wellbeing float64 `json:"wellbeing"`
}

// ComponentImportance is the relative-importance percentage per scored
// dimension, normalized to sum to 100. It is an associative heuristic
// over hired records, not a causal model.
type ComponentImportance struct {
	Technical float64 `json:"technical"`
	Culture   float64 `json:"culture"`
	Wellbeing float64 `json:"wellbeing"`
}

// Summary is the result of one aggregation pass.
type Summary struct {
	TotalMatches          int                 `json:"total_matches"`
	TotalHires            int                 `json:"total_hires"`
	SuccessRate           float64             `json:"success_rate"`
	AverageTimeToHireDays float64             `json:"average_time_to_hire_days"`
	ScoreAccuracy         float64             `json:"score_accuracy"`
	AverageScoresHired    ScoreAverages       `json:"average_scores_hired"`
	AverageScoresRejected ScoreAverages       `json:"average_scores_rejected"`
	AverageScoresAll      ScoreAverages       `json:"average_scores_all"`
	ComponentImportance   ComponentImportance `json:"component_importance"`
}

// AttributeCorrelation tallies one named attribute across records.
type AttributeCorrelation struct {
	Name        string  `json:"name"`
	Total       int     `json:"total"`
	Hired       int     `json:"hired"`
	Correlation float64 `json:"correlation"`
	Insight     string  `json:"insight"`
}

// TrendBucket is one calendar bucket of a trend query.
type TrendBucket struct {
	Bucket       string  `json:"bucket"`
	TotalMatches int     `json:"total_matches"`
	Hires        int     `json:"hires"`
	MeanScore    float64 `json:"mean_score"`
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the engine's reference clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// Engine computes outcome analytics over the match store.
type Engine struct {
	store   repository.MatchStore
	weights repository.WeightProfileStore
	clock   func() time.Time
	logger  logger.Logger
}

// New creates an Engine over the given stores.
func New(store repository.MatchStore, weights repository.WeightProfileStore, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		weights: weights,
		clock:   func() time.Time { return time.Now().UTC() },
		logger:  logger.Get().Named("analytics"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// load reads the owner's records for the range. Store unavailability
// degrades to an empty slice so dashboards show "no data" instead of
// crashing.
func (e *Engine) load(ctx context.Context, ownerID string, tr TimeRange) []model.MatchRecord {
	records, err := e.store.List(ctx, repository.MatchFilter{
		OwnerID: ownerID,
		From:    tr.From,
		To:      tr.To,
		Order:   repository.OrderByCreatedDesc,
	})
	if err != nil {
		e.logger.Warn(ctx, "match store unavailable; returning empty aggregates",
			logger.String("ownerID", ownerID),
			logger.Error(err),
		)
		return nil
	}
	return records
}

// Aggregate computes the outcome summary for one owner and time range.
// A range with zero records yields an all-zero summary, never an error.
func (e *Engine) Aggregate(ctx context.Context, ownerID string, tr TimeRange) Summary {
	start := time.Now()
	defer func() {
		metrics.RecordAnalyticsDuration(float64(time.Since(start).Milliseconds()))
	}()

	records := e.load(ctx, ownerID, tr)

	var s Summary
	s.TotalMatches = len(records)
	if s.TotalMatches == 0 {
		s.ComponentImportance = evenImportance()
		return s
	}

	var (
		hired, rejected            []model.MatchRecord
		hireDaysSum                float64
		hireDaysCount              int
		highScored, highScoredHits int
	)
	for i := range records {
		rec := &records[i]
		switch rec.Outcome {
		case model.OutcomeHired:
			hired = append(hired, *rec)
			if rec.OutcomeDate != nil {
				hireDaysSum += rec.OutcomeDate.Sub(rec.CreatedAt).Hours() / 24
				hireDaysCount++
			}
		case model.OutcomeRejected:
			rejected = append(rejected, *rec)
		}
		if rec.Overall >= accurateScoreFloor {
			highScored++
			if rec.Outcome == model.OutcomeHired {
				highScoredHits++
			}
		}
	}

	s.TotalHires = len(hired)
	s.SuccessRate = float64(s.TotalHires) / float64(s.TotalMatches)
	if hireDaysCount > 0 {
		s.AverageTimeToHireDays = hireDaysSum / float64(hireDaysCount)
	}
	if highScored > 0 {
		s.ScoreAccuracy = float64(highScoredHits) / float64(highScored)
	}
	s.AverageScoresHired = averageScores(hired)
	s.AverageScoresRejected = averageScores(rejected)
	s.AverageScoresAll = averageScores(records)
	s.ComponentImportance = componentImportance(hired)

	return s
}

// averageScores returns per-component means over the records, zero when
// the bucket is empty.
func averageScores(records []model.MatchRecord) ScoreAverages {
	if len(records) == 0 {
		return ScoreAverages{}
	}
	var sums ScoreAverages
	for i := range records {
		sums.Overall += records[i].Overall
		sums.Technical += records[i].Technical
		sums.Culture += records[i].Culture
		sums.Wellbeing += records[i].Wellbeing
	}
	n := float64(len(records))
	return ScoreAverages{
		Overall:   sums.Overall / n,
		Technical: sums.Technical / n,
		Culture:   sums.Culture / n,
		Wellbeing: sums.Wellbeing / n,
	}
}

// componentImportance is the proportional-allocation heuristic: mean of
// each dimension among hired records, normalized to sum to 100. With no
// hired data (or all-zero means) it degrades to an even split.
func componentImportance(hired []model.MatchRecord) ComponentImportance {
	if len(hired) == 0 {
		return evenImportance()
	}
	avg := averageScores(hired)
	total := avg.Technical + avg.Culture + avg.Wellbeing
	if total <= 0 {
		return evenImportance()
	}
	const full = 100
	return ComponentImportance{
		Technical: avg.Technical / total * full,
		Culture:   avg.Culture / total * full,
		Wellbeing: avg.Wellbeing / total * full,
	}
}

func evenImportance() ComponentImportance {
	return ComponentImportance{Technical: 33, Culture: 33, Wellbeing: 34}
}

// CorrelateAttributes tallies how often each named top attribute appears
// in hired vs all records. Attributes below the minimum sample size are
// explicitly marked insufficient instead of reporting a misleading ratio.
func (e *Engine) CorrelateAttributes(ctx context.Context, ownerID string, tr TimeRange) []AttributeCorrelation {
	records := e.load(ctx, ownerID, tr)

	type tally struct{ total, hired int }
	tallies := make(map[string]*tally)
	for i := range records {
		rec := &records[i]
		for _, attr := range rec.TopAttributes {
			t, ok := tallies[attr.Name]
			if !ok {
				t = &tally{}
				tallies[attr.Name] = t
			}
			t.total++
			if rec.Outcome == model.OutcomeHired {
				t.hired++
			}
		}
	}

	out := make([]AttributeCorrelation, 0, len(tallies))
	for name, t := range tallies {
		c := AttributeCorrelation{
			Name:        name,
			Total:       t.total,
			Hired:       t.hired,
			Correlation: float64(t.hired) / float64(t.total),
		}
		if t.total >= minAttributeSample {
			c.Insight = fmt.Sprintf("%s appears in %.0f%% of hires when present", name, c.Correlation*100)
		} else {
			c.Insight = "insufficient data"
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Correlation != out[j].Correlation {
			return out[i].Correlation > out[j].Correlation
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Trend groups records into calendar buckets. Bucket keys are derived
// from a single UTC reference so one aggregation call cannot straddle a
// zone change.
func (e *Engine) Trend(ctx context.Context, ownerID string, tr TimeRange, bucketing Bucketing) []TrendBucket {
	records := e.load(ctx, ownerID, tr)
	if len(records) == 0 {
		return nil
	}

	type agg struct {
		matches  int
		hires    int
		scoreSum float64
	}
	buckets := make(map[string]*agg)
	for i := range records {
		key := bucketKey(records[i].CreatedAt.UTC(), bucketing)
		a, ok := buckets[key]
		if !ok {
			a = &agg{}
			buckets[key] = a
		}
		a.matches++
		a.scoreSum += records[i].Overall
		if records[i].Outcome == model.OutcomeHired {
			a.hires++
		}
	}

	out := make([]TrendBucket, 0, len(buckets))
	for key, a := range buckets {
		out = append(out, TrendBucket{
			Bucket:       key,
			TotalMatches: a.matches,
			Hires:        a.hires,
			MeanScore:    a.scoreSum / float64(a.matches),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

func bucketKey(t time.Time, bucketing Bucketing) string {
	switch bucketing {
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case BucketMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// RecommendWeights derives a suggested weight profile from component
// importance and stores it for review. It never applies weights itself;
// profiles are written only by the external configuration path.
func (e *Engine) RecommendWeights(ctx context.Context, ownerID string, tr TimeRange) (model.AttributeWeightProfile, error) {
	summary := e.Aggregate(ctx, ownerID, tr)

	current, err := e.weights.Profile(ctx, ownerID)
	if err != nil {
		return model.AttributeWeightProfile{}, fmt.Errorf("load weight profile: %w", err)
	}

	rec := model.AttributeWeightProfile{
		OwnerID:         ownerID,
		Version:         fmt.Sprintf("recommended-%s", e.clock().Format("20060102T150405Z")),
		TechnicalWeight: summary.ComponentImportance.Technical,
		CultureWeight:   summary.ComponentImportance.Culture,
		WellbeingWeight: summary.ComponentImportance.Wellbeing,
		MinTechnical:    current.MinTechnical,
		MinCulture:      current.MinCulture,
		MinWellbeing:    current.MinWellbeing,
	}

	if err := e.weights.PutRecommendation(ctx, ownerID, rec); err != nil {
		return model.AttributeWeightProfile{}, fmt.Errorf("store weight recommendation: %w", err)
	}
	return rec, nil
}
