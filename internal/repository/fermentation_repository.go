package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fermentation-platform/internal/models"
	"fermentation-platform/pkg/database"
	"fermentation-platform/pkg/logging"
	"fermentation-platform/pkg/metrics"
)

// FermentationRepository provides data access for fermentations and samples
type FermentationRepository interface {
	// Fermentation operations
	CreateFermentation(ctx context.Context, f *models.Fermentation) error
	GetFermentation(ctx context.Context, id uuid.UUID) (*models.Fermentation, error)
	ListFermentations(ctx context.Context, limit, offset int) ([]*models.Fermentation, int, error)
	UpdateFermentationStatus(ctx context.Context, id uuid.UUID, status models.FermentationStatus) error

	// Sample operations
	CreateSample(ctx context.Context, sample *models.Sample) error
	CreateSamplesBatch(ctx context.Context, samples []*models.Sample) error
	GetSamples(ctx context.Context, filter SampleFilter) ([]*models.Sample, int, error)
	GetSampleTimestamps(ctx context.Context, fermentationID uuid.UUID, sampleType models.SampleType) ([]time.Time, error)
	GetLatestSample(ctx context.Context, fermentationID uuid.UUID, sampleType models.SampleType) (*models.Sample, error)

	// Status history operations
	RecordStatusChange(ctx context.Context, change *models.StatusChange) error
	GetStatusHistory(ctx context.Context, fermentationID uuid.UUID, limit int) ([]*models.StatusChange, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// SampleFilter defines filters for querying samples
type SampleFilter struct {
	FermentationID *uuid.UUID
	SampleType     *models.SampleType
	StartDate      *time.Time
	EndDate        *time.Time
	Limit          int
	Offset         int
}

// fermentationRepository implements FermentationRepository
type fermentationRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFermentationRepository creates a new fermentation repository
func NewFermentationRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) FermentationRepository {
	return &fermentationRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateFermentation creates a new fermentation batch
func (r *fermentationRepository) CreateFermentation(ctx context.Context, f *models.Fermentation) error {
	query := `
		INSERT INTO fermentations (id, name, vessel, started_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, "insert_fermentation", query,
		f.ID,
		f.Name,
		f.Vessel,
		f.StartedAt,
		f.Status,
		f.CreatedAt,
		f.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create fermentation: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_FERMENTATION] Fermentation created", logging.Fields{
		"fermentation_id": f.ID.String(),
		"name":            f.Name,
		"vessel":          f.Vessel,
	})

	return nil
}

// GetFermentation retrieves a fermentation by ID
func (r *fermentationRepository) GetFermentation(ctx context.Context, id uuid.UUID) (*models.Fermentation, error) {
	query := `
		SELECT id, name, vessel, started_at, status, created_at, updated_at
		FROM fermentations
		WHERE id = $1
	`

	var f models.Fermentation
	err := r.db.GetContext(ctx, "get_fermentation", &f, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "fermentation",
			ID:       id.String(),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get fermentation: %w", err)
	}

	return &f, nil
}

// ListFermentations retrieves fermentations with pagination
func (r *fermentationRepository) ListFermentations(ctx context.Context, limit, offset int) ([]*models.Fermentation, int, error) {
	var totalCount int
	err := r.db.GetContext(ctx, "count_fermentations", &totalCount,
		`SELECT COUNT(*) FROM fermentations`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count fermentations: %w", err)
	}

	query := `
		SELECT id, name, vessel, started_at, status, created_at, updated_at
		FROM fermentations
		ORDER BY started_at DESC, name
		LIMIT $1 OFFSET $2
	`

	var fermentations []*models.Fermentation
	err = r.db.SelectContext(ctx, "list_fermentations", &fermentations, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list fermentations: %w", err)
	}

	return fermentations, totalCount, nil
}

// UpdateFermentationStatus stores the latest classified status
func (r *fermentationRepository) UpdateFermentationStatus(ctx context.Context, id uuid.UUID, status models.FermentationStatus) error {
	query := `
		UPDATE fermentations
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, "update_fermentation_status", query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update fermentation status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &NotFoundError{Resource: "fermentation", ID: id.String()}
	}

	return nil
}

// CreateSample creates a new sample. The unique index on
// (fermentation_id, sample_type, recorded_at) backstops the chronology
// validator's duplicate check against concurrent writers; a collision is
// surfaced as DuplicateSampleError.
func (r *fermentationRepository) CreateSample(ctx context.Context, sample *models.Sample) error {
	query := `
		INSERT INTO samples (
			fermentation_id, sample_type, value, unit, recorded_at, recorded_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		sample.FermentationID,
		sample.SampleType,
		sample.Value,
		sample.Unit,
		sample.RecordedAt,
		sample.RecordedBy,
		sample.CreatedAt,
	).Scan(&sample.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateSampleError{
				FermentationID: sample.FermentationID.String(),
				SampleType:     string(sample.SampleType),
				RecordedAt:     sample.RecordedAt,
			}
		}
		return fmt.Errorf("failed to create sample: %w", err)
	}

	return nil
}

// CreateSamplesBatch creates multiple samples in a single transaction
func (r *fermentationRepository) CreateSamplesBatch(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(samples)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(samples),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (
			fermentation_id, sample_type, value, unit, recorded_at, recorded_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fermentation_id, sample_type, recorded_at) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		_, err := stmt.ExecContext(ctx,
			sample.FermentationID,
			sample.SampleType,
			sample.Value,
			sample.Unit,
			sample.RecordedAt,
			sample.RecordedBy,
			sample.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(samples)))

	return nil
}

// GetSamples retrieves samples with filtering and pagination
func (r *fermentationRepository) GetSamples(ctx context.Context, filter SampleFilter) ([]*models.Sample, int, error) {
	query := `
		SELECT id, fermentation_id, sample_type, value, unit, recorded_at, recorded_by, created_at
		FROM samples
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.FermentationID != nil {
		query += fmt.Sprintf(" AND fermentation_id = $%d", argNum)
		args = append(args, *filter.FermentationID)
		argNum++
	}

	if filter.SampleType != nil {
		query += fmt.Sprintf(" AND sample_type = $%d", argNum)
		args = append(args, *filter.SampleType)
		argNum++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND recorded_at >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND recorded_at <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_samples", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count samples: %w", err)
	}

	query += " ORDER BY recorded_at, sample_type"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var samples []*models.Sample
	err = r.db.SelectContext(ctx, "get_samples", &samples, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get samples: %w", err)
	}

	return samples, totalCount, nil
}

// GetSampleTimestamps returns the recorded timestamps for one fermentation and
// metric in ascending order. This is the history snapshot the chronology
// validator runs against.
func (r *fermentationRepository) GetSampleTimestamps(ctx context.Context, fermentationID uuid.UUID, sampleType models.SampleType) ([]time.Time, error) {
	query := `
		SELECT recorded_at
		FROM samples
		WHERE fermentation_id = $1 AND sample_type = $2
		ORDER BY recorded_at
	`

	var timestamps []time.Time
	err := r.db.SelectContext(ctx, "get_sample_timestamps", &timestamps, query, fermentationID, sampleType)
	if err != nil {
		return nil, fmt.Errorf("failed to get sample timestamps: %w", err)
	}

	return timestamps, nil
}

// GetLatestSample returns the most recent sample for one fermentation and
// metric, or a NotFoundError when none exists yet.
func (r *fermentationRepository) GetLatestSample(ctx context.Context, fermentationID uuid.UUID, sampleType models.SampleType) (*models.Sample, error) {
	query := `
		SELECT id, fermentation_id, sample_type, value, unit, recorded_at, recorded_by, created_at
		FROM samples
		WHERE fermentation_id = $1 AND sample_type = $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var sample models.Sample
	err := r.db.GetContext(ctx, "get_latest_sample", &sample, query, fermentationID, sampleType)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "sample",
			ID:       fmt.Sprintf("%s:%s", fermentationID, sampleType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get latest sample: %w", err)
	}

	return &sample, nil
}

// RecordStatusChange appends a classification outcome to the history
func (r *fermentationRepository) RecordStatusChange(ctx context.Context, change *models.StatusChange) error {
	query := `
		INSERT INTO status_history (fermentation_id, status, classified_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		change.FermentationID,
		change.Status,
		change.ClassifiedAt,
	).Scan(&change.ID)

	if err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}

	return nil
}

// GetStatusHistory returns the most recent classification outcomes, newest
// first
func (r *fermentationRepository) GetStatusHistory(ctx context.Context, fermentationID uuid.UUID, limit int) ([]*models.StatusChange, error) {
	query := `
		SELECT id, fermentation_id, status, classified_at
		FROM status_history
		WHERE fermentation_id = $1
		ORDER BY classified_at DESC
		LIMIT $2
	`

	var history []*models.StatusChange
	err := r.db.SelectContext(ctx, "get_status_history", &history, query, fermentationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	return history, nil
}

// HealthCheck performs a repository health check
func (r *fermentationRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

// DuplicateSampleError is returned when the storage-level uniqueness
// constraint rejects a sample that slipped past the chronology check.
type DuplicateSampleError struct {
	FermentationID string
	SampleType     string
	RecordedAt     time.Time
}

func (e *DuplicateSampleError) Error() string {
	return fmt.Sprintf("duplicate sample for fermentation %s (%s at %s)",
		e.FermentationID, e.SampleType, e.RecordedAt.Format(time.RFC3339))
}

func (e *DuplicateSampleError) IsTransient() bool {
	return false
}
