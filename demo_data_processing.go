package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fermentation-platform/internal/classifier"
	"fermentation-platform/internal/models"
	"fermentation-platform/internal/validation"
)

// Demonstrates the validation and classification core without a database.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("FERMENTATION PLATFORM - VALIDATION CORE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	fermentationID := uuid.New()
	startedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// A plausible sugar curve: vigorous start, then slowing down.
	readings := []struct {
		day   int
		value float64
	}{
		{1, 24.0},
		{2, 22.5},
		{3, 20.0},
		{5, 16.5},
		{7, 14.0},
		{9, 13.6},
		{11, 13.5},
	}

	var prior []time.Time
	var previous *float64
	window := make([]classifier.Observation, 0, len(readings))

	fmt.Printf("Fermentation %s started %s\n\n", fermentationID, startedAt.Format("2006-01-02"))

	for _, r := range readings {
		recordedAt := startedAt.AddDate(0, 0, r.day)

		valueResult := validation.ValidateSampleValue(models.SampleTypeSugar, r.value)
		chronoResult := validation.ValidateSampleChronology(fermentationID, recordedAt, startedAt, prior)

		trendResult := validation.Success()
		if previous != nil {
			trendResult = validation.ValidateSugarTrend(*previous, r.value, 0.2)
		}

		combined := validation.Combine(valueResult, chronoResult, trendResult)

		verdict := "ACCEPTED"
		if !combined.Valid {
			verdict = "REJECTED"
		}
		fmt.Printf("day %2d  sugar %5.1f brix  %s\n", r.day, r.value, verdict)
		for _, verr := range combined.Errors {
			fmt.Printf("        error: %s\n", verr.Message)
		}

		if combined.Valid {
			prior = append(prior, recordedAt)
			v := r.value
			previous = &v
			window = append(window, classifier.Observation{RecordedAt: recordedAt, Value: r.value})
		}
	}

	// A rejected submission: same timestamp as an accepted sample.
	duplicate := startedAt.AddDate(0, 0, 2)
	result := validation.ValidateSampleChronology(fermentationID, duplicate, startedAt, prior)
	fmt.Printf("\nresubmitting day 2 reading: valid=%v\n", result.Valid)
	for _, verr := range result.Errors {
		fmt.Printf("        error: %s\n", verr.Message)
	}

	// Classify the accumulated window with demonstration thresholds.
	c := classifier.New(classifier.Config{
		TargetSugarBrix: 0.5,
		SlowRatePerDay:  0.5,
		StallTolerance:  0.2,
		StallWindow:     72 * time.Hour,
		MinSamples:      2,
	})

	status, err := c.Classify(startedAt, window)
	if err != nil {
		fmt.Printf("\nclassification failed: %v\n", err)
		return
	}

	fmt.Printf("\nStatus over full history:     %s\n", status)

	// The trailing window alone tells a different story: barely moving.
	tail := window[len(window)-3:]
	status, _ = c.Classify(startedAt, tail)
	fmt.Printf("Status over trailing window:  %s\n", status)
}
