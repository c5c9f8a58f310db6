package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
)

// DaySpan is the first and last occupied block of a day on campus.
type DaySpan struct {
	Day   int `json:"day"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Length is the span between the first and last occupied block.
func (s DaySpan) Length() int {
	return s.End - s.Start
}

// DayStats are the per-grid measurements every scoring criterion is derived from.
type DayStats struct {
	ContactHours    []int     `json:"contact_hours"`
	Spans           []DaySpan `json:"spans"`
	Breaks          []int     `json:"breaks"`
	DaysSpent       int       `json:"days_spent"`
	ContactVariance float64   `json:"contact_variance"`
}

// AnalyzeTimetable measures a grid. Empty days contribute nothing; breaks are runs of empty
// blocks strictly between a day's first and last occupied block.
func AnalyzeTimetable(tt models.Timetable) DayStats {
	var stats DayStats
	for day := 0; day < models.Days; day++ {
		start, end, contact, gap := -1, -1, 0, 0
		for block := 0; block < models.BlocksPerDay; block++ {
			if !tt[day][block].Occupied {
				if start >= 0 {
					gap++
				}
				continue
			}
			if start < 0 {
				start = block
			}
			if gap > 0 {
				stats.Breaks = append(stats.Breaks, gap)
				gap = 0
			}
			end = block
			contact++
		}
		if start < 0 {
			continue
		}
		stats.DaysSpent++
		stats.ContactHours = append(stats.ContactHours, contact)
		stats.Spans = append(stats.Spans, DaySpan{Day: day, Start: start, End: end})
	}
	stats.ContactVariance = Variance(stats.ContactHours)
	return stats
}

// Variance is the population variance; empty input yields 0.
func Variance(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(len(values))
	return (sumSq - sum*sum/n) / n
}

// Average is the arithmetic mean; empty input yields 0.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// ScoreKey is compared lexicographically; larger keys rank first.
type ScoreKey []float64

// Compare returns -1, 0 or 1. A key that is a strict prefix of another sorts lower.
func (k ScoreKey) Compare(other ScoreKey) int {
	for i := 0; i < len(k) && i < len(other); i++ {
		switch {
		case k[i] < other[i]:
			return -1
		case k[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

// ScoringPolicy reduces a grid to a comparable key.
type ScoringPolicy interface {
	Key(tt models.Timetable) ScoreKey
}

// ScoringFunc adapts a plain function to ScoringPolicy.
type ScoringFunc func(tt models.Timetable) ScoreKey

// Key calls f.
func (f ScoringFunc) Key(tt models.Timetable) ScoreKey {
	return f(tt)
}

const (
	// DefaultEarlyBefore is 09:30; a day starting before it is too early.
	DefaultEarlyBefore = 3
	// DefaultLateFrom is 18:00; a day with a class in or after that block is too late.
	DefaultLateFrom = 20
)

// DefaultPolicy ranks by, in order: fewer early days, fewer late days, fewer days on campus,
// even contact hours, shorter days, longer consolidated breaks and later starts.
type DefaultPolicy struct {
	EarlyBefore int
	LateFrom    int
}

// NewDefaultPolicy returns the default policy with the standard thresholds.
func NewDefaultPolicy() DefaultPolicy {
	return DefaultPolicy{EarlyBefore: DefaultEarlyBefore, LateFrom: DefaultLateFrom}
}

// Key implements ScoringPolicy.
func (p DefaultPolicy) Key(tt models.Timetable) ScoreKey {
	stats := AnalyzeTimetable(tt)
	return ScoreKey{
		-daysTooEarly(stats, p.EarlyBefore),
		-daysTooLate(stats, p.LateFrom),
		-float64(stats.DaysSpent),
		-stats.ContactVariance,
		-totalDayLength(stats),
		breaksSquared(stats),
		startSum(stats),
	}
}

// DefaultCriteria spells out DefaultPolicy as named criteria.
var DefaultCriteria = []string{
	"-days_too_early",
	"-days_too_late",
	"-days_spent",
	"-contact_variance",
	"-total_day_length",
	"+breaks_squared",
	"+start_sum",
}

// CriteriaOptions parameterises the named criteria.
type CriteriaOptions struct {
	EarlyBefore int
	LateFrom    int
	// TargetStart is the preferred block to arrive at, used by start_distance.
	TargetStart int
	// FocusDays are the days measured by day_contact, e.g. days reserved for a job.
	FocusDays []int
}

type criterion struct {
	name     string
	maximize bool
	measure  func(stats DayStats, tt models.Timetable) float64
}

// CriteriaPolicy scores with an ordered list of signed criteria such as "-days_spent".
type CriteriaPolicy struct {
	criteria []criterion
}

// CriteriaNames lists the criteria ParseCriteria understands.
func CriteriaNames() []string {
	return []string{
		"days_too_early", "days_too_late", "days_spent", "contact_variance", "total_day_length",
		"breaks_squared", "start_sum", "end_sum", "start_distance", "day_contact",
	}
}

// ParseCriteria builds a policy. Every entry needs a leading "+" (maximise) or "-" (minimise).
func ParseCriteria(specs []string, opts CriteriaOptions) (*CriteriaPolicy, error) {
	if len(specs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one scoring criterion is required")
	}
	policy := &CriteriaPolicy{criteria: make([]criterion, 0, len(specs))}
	for _, raw := range specs {
		raw = strings.TrimSpace(raw)
		if len(raw) < 2 || (raw[0] != '+' && raw[0] != '-') {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("criterion %q must start with + or -", raw))
		}
		measure, err := measureFor(raw[1:], opts)
		if err != nil {
			return nil, err
		}
		policy.criteria = append(policy.criteria, criterion{name: raw[1:], maximize: raw[0] == '+', measure: measure})
	}
	return policy, nil
}

// Key implements ScoringPolicy.
func (p *CriteriaPolicy) Key(tt models.Timetable) ScoreKey {
	stats := AnalyzeTimetable(tt)
	key := make(ScoreKey, len(p.criteria))
	for i, c := range p.criteria {
		value := c.measure(stats, tt)
		if !c.maximize {
			value = -value
		}
		key[i] = value
	}
	return key
}

func measureFor(name string, opts CriteriaOptions) (func(DayStats, models.Timetable) float64, error) {
	switch name {
	case "days_too_early":
		return func(s DayStats, _ models.Timetable) float64 { return daysTooEarly(s, opts.EarlyBefore) }, nil
	case "days_too_late":
		return func(s DayStats, _ models.Timetable) float64 { return daysTooLate(s, opts.LateFrom) }, nil
	case "days_spent":
		return func(s DayStats, _ models.Timetable) float64 { return float64(s.DaysSpent) }, nil
	case "contact_variance":
		return func(s DayStats, _ models.Timetable) float64 { return s.ContactVariance }, nil
	case "total_day_length":
		return func(s DayStats, _ models.Timetable) float64 { return totalDayLength(s) }, nil
	case "breaks_squared":
		return func(s DayStats, _ models.Timetable) float64 { return breaksSquared(s) }, nil
	case "start_sum":
		return func(s DayStats, _ models.Timetable) float64 { return startSum(s) }, nil
	case "end_sum":
		return func(s DayStats, _ models.Timetable) float64 {
			var sum float64
			for _, span := range s.Spans {
				sum += float64(span.End)
			}
			return sum
		}, nil
	case "start_distance":
		return func(s DayStats, _ models.Timetable) float64 {
			var sum float64
			for _, span := range s.Spans {
				sum += math.Abs(float64(span.Start - opts.TargetStart))
			}
			return sum
		}, nil
	case "day_contact":
		for _, day := range opts.FocusDays {
			if day < 0 || day >= models.Days {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("focus day %d out of range", day))
			}
		}
		return func(_ DayStats, tt models.Timetable) float64 {
			var sum float64
			for _, day := range opts.FocusDays {
				sum += float64(tt.OccupiedBlocks(day))
			}
			return sum
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown criterion %q", name))
}

func daysTooEarly(s DayStats, before int) float64 {
	count := 0
	for _, span := range s.Spans {
		if span.Start < before {
			count++
		}
	}
	return float64(count)
}

func daysTooLate(s DayStats, from int) float64 {
	count := 0
	for _, span := range s.Spans {
		if span.End >= from {
			count++
		}
	}
	return float64(count)
}

func totalDayLength(s DayStats) float64 {
	var sum float64
	for _, span := range s.Spans {
		sum += float64(span.Length())
	}
	return sum
}

func breaksSquared(s DayStats) float64 {
	var sum float64
	for _, b := range s.Breaks {
		sum += float64(b * b)
	}
	return sum
}

func startSum(s DayStats) float64 {
	var sum float64
	for _, span := range s.Spans {
		sum += float64(span.Start)
	}
	return sum
}
