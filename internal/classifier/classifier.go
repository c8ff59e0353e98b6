package classifier

import (
	"errors"
	"time"

	"fermentation-platform/internal/models"
)

// ErrMissingStartDate is returned when a fermentation without a start date is
// classified. The caller is responsible for never letting that happen; the
// classifier reports instead of guessing.
var ErrMissingStartDate = errors.New("classifier: fermentation start date is required")

// Observation is one sugar or density reading inside the classification
// window, ordered ascending by time.
type Observation struct {
	RecordedAt time.Time
	Value      float64
}

// Config holds the thresholds that separate the lifecycle states. None of
// these have authoritative defaults in enology; they are cellar policy and
// must be supplied by configuration.
type Config struct {
	// TargetSugarBrix is the residual sugar at or below which the
	// fermentation is considered finished.
	TargetSugarBrix float64

	// SlowRatePerDay is the minimum decline rate (units per day) for the
	// fermentation to count as actively progressing.
	SlowRatePerDay float64

	// StallTolerance is the total decline, in the metric's unit, below which
	// the window shows no measurable progress.
	StallTolerance float64

	// StallWindow is how long a fermentation may show no measurable progress
	// before it is considered stuck.
	StallWindow time.Duration

	// MinSamples is the minimum number of observations needed to classify
	// beyond the default ACTIVE state.
	MinSamples int
}

// Classifier derives a fermentation's lifecycle status from its recent sample
// window. It is stateless: every call recomputes from the supplied history,
// and non-terminal states are re-derived from scratch rather than remembered.
type Classifier struct {
	cfg Config
}

// New creates a classifier with the given thresholds.
func New(cfg Config) *Classifier {
	if cfg.MinSamples < 2 {
		cfg.MinSamples = 2
	}
	return &Classifier{cfg: cfg}
}

// Classify derives the status for a fermentation started at startedAt from a
// trailing window of sugar/density observations in ascending time order.
//
// LAG and DECLINE are reserved variants with no defined trigger; Classify
// never returns them.
func (c *Classifier) Classify(startedAt time.Time, window []Observation) (models.FermentationStatus, error) {
	if startedAt.IsZero() {
		return "", ErrMissingStartDate
	}

	// Not enough history to say anything beyond the default state.
	if len(window) < c.cfg.MinSamples {
		return models.StatusActive, nil
	}

	first := window[0]
	latest := window[len(window)-1]

	// Terminal check first: once the target is reached nothing else matters.
	if latest.Value <= c.cfg.TargetSugarBrix {
		return models.StatusCompleted, nil
	}

	span := latest.RecordedAt.Sub(first.RecordedAt)
	if span <= 0 {
		// Simultaneous probe readings only; no elapsed time to rate over.
		return models.StatusActive, nil
	}

	drop := first.Value - latest.Value

	if drop <= c.cfg.StallTolerance && span >= c.cfg.StallWindow {
		return models.StatusStuck, nil
	}

	ratePerDay := drop / (span.Hours() / 24)
	if ratePerDay < c.cfg.SlowRatePerDay {
		return models.StatusSlow, nil
	}

	return models.StatusActive, nil
}
