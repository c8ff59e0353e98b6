package classifier

import (
	"errors"
	"testing"
	"time"

	"fermentation-platform/internal/models"
)

func testConfig() Config {
	return Config{
		TargetSugarBrix: 0.5,
		SlowRatePerDay:  0.5,
		StallTolerance:  0.2,
		StallWindow:     72 * time.Hour,
		MinSamples:      2,
	}
}

func obs(startedAt time.Time, dayOffset float64, value float64) Observation {
	return Observation{
		RecordedAt: startedAt.Add(time.Duration(dayOffset * 24 * float64(time.Hour))),
		Value:      value,
	}
}

func TestClassifyMissingStartDate(t *testing.T) {
	c := New(testConfig())

	_, err := c.Classify(time.Time{}, []Observation{
		{RecordedAt: time.Now(), Value: 10.0},
		{RecordedAt: time.Now().Add(time.Hour), Value: 9.0},
	})
	if !errors.Is(err, ErrMissingStartDate) {
		t.Fatalf("err = %v, want ErrMissingStartDate", err)
	}
}

func TestClassify(t *testing.T) {
	startedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		window []Observation
		want   models.FermentationStatus
	}{
		{
			name:   "no samples defaults to active",
			window: nil,
			want:   models.StatusActive,
		},
		{
			name: "single sample below minimum defaults to active",
			window: []Observation{
				obs(startedAt, 1, 24.0),
			},
			want: models.StatusActive,
		},
		{
			name: "steady decline is active",
			window: []Observation{
				obs(startedAt, 1, 24.0),
				obs(startedAt, 2, 22.0),
				obs(startedAt, 3, 20.0),
			},
			want: models.StatusActive,
		},
		{
			name: "latest at target is completed",
			window: []Observation{
				obs(startedAt, 1, 5.0),
				obs(startedAt, 10, 0.5),
			},
			want: models.StatusCompleted,
		},
		{
			name: "latest below target is completed",
			window: []Observation{
				obs(startedAt, 1, 5.0),
				obs(startedAt, 10, -0.2),
			},
			want: models.StatusCompleted,
		},
		{
			name: "slow decline below rate threshold",
			window: []Observation{
				obs(startedAt, 1, 14.0),
				obs(startedAt, 5, 13.0),
			},
			want: models.StatusSlow,
		},
		{
			name: "no movement over the stall window is stuck",
			window: []Observation{
				obs(startedAt, 1, 14.0),
				obs(startedAt, 3, 13.95),
				obs(startedAt, 5, 13.9),
			},
			want: models.StatusStuck,
		},
		{
			name: "no movement but window too short is slow",
			window: []Observation{
				obs(startedAt, 1, 14.0),
				obs(startedAt, 2, 13.9),
			},
			want: models.StatusSlow,
		},
		{
			name: "simultaneous readings default to active",
			window: []Observation{
				obs(startedAt, 1, 14.0),
				obs(startedAt, 1, 14.0),
			},
			want: models.StatusActive,
		},
		{
			name: "completed wins over stalled window",
			window: []Observation{
				obs(startedAt, 1, 0.5),
				obs(startedAt, 10, 0.45),
			},
			want: models.StatusCompleted,
		},
	}

	c := New(testConfig())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(startedAt, tt.window)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

// A stalled fermentation that picks back up must be reclassified from the new
// window alone; nothing about the earlier STUCK verdict is remembered.
func TestClassifyRecoveryFromStall(t *testing.T) {
	startedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(testConfig())

	stalled := []Observation{
		obs(startedAt, 1, 14.0),
		obs(startedAt, 5, 13.9),
	}
	status, err := c.Classify(startedAt, stalled)
	if err != nil {
		t.Fatal(err)
	}
	if status != models.StatusStuck {
		t.Fatalf("stalled window = %s, want STUCK", status)
	}

	recovered := append(stalled,
		obs(startedAt, 6, 12.5),
		obs(startedAt, 7, 10.0),
	)
	status, err = c.Classify(startedAt, recovered)
	if err != nil {
		t.Fatal(err)
	}
	if status != models.StatusActive {
		t.Errorf("recovered window = %s, want ACTIVE", status)
	}
}

// Identical inputs must always produce identical verdicts.
func TestClassifyDeterministic(t *testing.T) {
	startedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(testConfig())

	window := []Observation{
		obs(startedAt, 1, 14.0),
		obs(startedAt, 5, 13.0),
	}

	first, err := c.Classify(startedAt, window)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		got, err := c.Classify(startedAt, window)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("call %d = %s, first call = %s", i, got, first)
		}
	}
}

func TestNewEnforcesMinimumSampleFloor(t *testing.T) {
	c := New(Config{MinSamples: 0, TargetSugarBrix: 0.5})

	startedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	status, err := c.Classify(startedAt, []Observation{obs(startedAt, 1, 24.0)})
	if err != nil {
		t.Fatal(err)
	}
	if status != models.StatusActive {
		t.Errorf("single observation = %s, want ACTIVE even with MinSamples 0", status)
	}
}
