package validation

import (
	"time"

	"github.com/google/uuid"
)

// ValidateSampleChronology checks that a new sample's timestamp is consistent
// with the fermentation's start date and its previously recorded samples.
// prior holds the timestamps already recorded for the same fermentation and
// metric, in ascending order, as supplied by the caller's history snapshot.
//
// Order is enforced as non-decreasing, not strictly increasing: two probes
// reading at the same instant for different metrics is legitimate, but the
// exact timestamp may not repeat within one metric.
func ValidateSampleChronology(fermentationID uuid.UUID, sampleAt, startedAt time.Time, prior []time.Time) ValidationResult {
	if sampleAt.Before(startedAt) {
		return Failure(ValidationError{
			Field:   "recorded_at",
			Message: "Sample date precedes fermentation start date",
			Value:   sampleAt,
		})
	}

	for _, ts := range prior {
		if ts.Equal(sampleAt) {
			return Failure(ValidationError{
				Field:   "recorded_at",
				Message: "Duplicate timestamp for fermentation " + fermentationID.String(),
				Value:   sampleAt,
			})
		}
	}

	if len(prior) > 0 {
		latest := prior[len(prior)-1]
		if sampleAt.Before(latest) {
			return Failure(ValidationError{
				Field:   "recorded_at",
				Message: "Sample date is earlier than the latest recorded sample",
				Value:   sampleAt,
			})
		}
	}

	return Success()
}

// ValidateFermentationTimeline checks an entire sample history against the
// fermentation's start date. Every sample that predates the start is reported,
// so a bulk import surfaces all offending rows at once.
func ValidateFermentationTimeline(startedAt time.Time, sampleDates []time.Time) ValidationResult {
	var errors []ValidationError
	for _, ts := range sampleDates {
		if ts.Before(startedAt) {
			errors = append(errors, ValidationError{
				Field:   "recorded_at",
				Message: "Sample date precedes fermentation start date",
				Value:   ts,
			})
		}
	}

	if len(errors) > 0 {
		return Failure(errors...)
	}
	return Success()
}
