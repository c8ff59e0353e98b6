package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestValidateSampleChronology(t *testing.T) {
	fermentationID := uuid.New()
	startedAt := date(2024, 1, 1)

	tests := []struct {
		name        string
		sampleAt    time.Time
		prior       []time.Time
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "first sample after start",
			sampleAt:  date(2024, 1, 2),
			prior:     nil,
			wantValid: true,
		},
		{
			name:      "later than latest prior",
			sampleAt:  date(2024, 1, 3),
			prior:     []time.Time{date(2024, 1, 2)},
			wantValid: true,
		},
		{
			name:      "equal to start date",
			sampleAt:  date(2024, 1, 1),
			prior:     nil,
			wantValid: true,
		},
		{
			name:        "duplicate of existing timestamp",
			sampleAt:    date(2024, 1, 2),
			prior:       []time.Time{date(2024, 1, 2), date(2024, 1, 3)},
			wantValid:   false,
			wantMessage: "Duplicate timestamp",
		},
		{
			name:        "before fermentation start",
			sampleAt:    date(2023, 12, 30),
			prior:       nil,
			wantValid:   false,
			wantMessage: "precedes fermentation start",
		},
		{
			name:        "backdated between prior samples",
			sampleAt:    date(2024, 1, 2),
			prior:       []time.Time{date(2024, 1, 1), date(2024, 1, 5)},
			wantValid:   false,
			wantMessage: "earlier than the latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSampleChronology(fermentationID, tt.sampleAt, startedAt, tt.prior)

			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}

			if !tt.wantValid && !strings.Contains(result.Errors[0].Message, tt.wantMessage) {
				t.Errorf("error message = %q, want it to contain %q", result.Errors[0].Message, tt.wantMessage)
			}
		})
	}
}

// Simultaneous multi-probe readings are legitimate: a timestamp equal to the
// latest prior sample of a different metric is accepted as long as it is not
// an exact duplicate within the same history.
func TestValidateSampleChronologyTiedTimestamp(t *testing.T) {
	fermentationID := uuid.New()
	startedAt := date(2024, 1, 1)
	tied := date(2024, 1, 2)

	// History for a different metric also recorded at the tied instant would
	// be a separate history slice; within this metric only strictly earlier
	// priors exist.
	result := ValidateSampleChronology(fermentationID, tied, startedAt, []time.Time{date(2024, 1, 1)})
	if !result.Valid {
		t.Errorf("tied-to-other-metric timestamp rejected: %v", result.Errors)
	}
}

func TestValidateFermentationTimeline(t *testing.T) {
	startedAt := date(2024, 1, 10)

	t.Run("all samples after start", func(t *testing.T) {
		result := ValidateFermentationTimeline(startedAt, []time.Time{
			date(2024, 1, 11), date(2024, 1, 12),
		})
		if !result.Valid {
			t.Errorf("timeline rejected: %v", result.Errors)
		}
	})

	t.Run("every offending sample reported", func(t *testing.T) {
		result := ValidateFermentationTimeline(startedAt, []time.Time{
			date(2024, 1, 8), date(2024, 1, 11), date(2024, 1, 9),
		})
		if result.Valid {
			t.Fatal("timeline with early samples should be invalid")
		}
		if len(result.Errors) != 2 {
			t.Errorf("errors = %d, want 2 (one per offending sample)", len(result.Errors))
		}
	})

	t.Run("empty history is valid", func(t *testing.T) {
		result := ValidateFermentationTimeline(startedAt, nil)
		if !result.Valid {
			t.Errorf("empty timeline rejected: %v", result.Errors)
		}
	})
}

// End-to-end scenario: a fermentation starting 2024-01-01 accepts two
// decreasing sugar samples on consecutive days, then rejects a resubmission
// at an already-recorded timestamp.
func TestChronologyAndTrendScenario(t *testing.T) {
	fermentationID := uuid.New()
	startedAt := date(2024, 1, 1)
	tolerance := 0.2

	var prior []time.Time

	// Sample A: sugar=24.0 at 2024-01-02, no prior sample.
	aAt := date(2024, 1, 2)
	resultA := Combine(
		ValidateSampleValue("sugar", 24.0),
		ValidateSampleChronology(fermentationID, aAt, startedAt, prior),
	)
	if !resultA.Valid {
		t.Fatalf("sample A rejected: %v", resultA.Errors)
	}
	prior = append(prior, aAt)

	// Sample B: sugar=23.0 at 2024-01-03, passes chronology and trend.
	bAt := date(2024, 1, 3)
	resultB := Combine(
		ValidateSampleValue("sugar", 23.0),
		ValidateSampleChronology(fermentationID, bAt, startedAt, prior),
		ValidateSugarTrend(24.0, 23.0, tolerance),
	)
	if !resultB.Valid {
		t.Fatalf("sample B rejected: %v", resultB.Errors)
	}
	prior = append(prior, bAt)

	// Sample C: sugar=23.0 resubmitted at A's timestamp fails chronology.
	resultC := Combine(
		ValidateSampleValue("sugar", 23.0),
		ValidateSampleChronology(fermentationID, aAt, startedAt, prior),
	)
	if resultC.Valid {
		t.Fatal("sample C at a duplicate timestamp should be rejected")
	}
	if !strings.Contains(resultC.Errors[0].Message, "Duplicate timestamp") {
		t.Errorf("sample C error = %q, want duplicate timestamp", resultC.Errors[0].Message)
	}
}
