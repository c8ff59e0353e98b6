package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fermentation-platform/internal/models"
	"fermentation-platform/internal/repository"
	"fermentation-platform/internal/validation"
	"fermentation-platform/pkg/logging"
	"fermentation-platform/pkg/metrics"
)

// IngestionService bulk-loads lab export files. Each file holds the samples
// of one fermentation, one tab-separated record per line:
//
//	RECORDED_AT \t SAMPLE_TYPE \t VALUE [\t RECORDED_BY]
//
// The file name (without extension) must be the fermentation UUID.
type IngestionService struct {
	repo    repository.FermentationRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	repo repository.FermentationRepository,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests all lab export files from a directory
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting lab data ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.tsv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no lab export files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	for _, filePath := range files {
		fileResult, err := s.ingestFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Lab data ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// ingestFile ingests a single lab export file. Records are validated as a
// whole timeline before insert so a bad export surfaces every offending row
// at once, then written in batches behind the unique index.
func (s *IngestionService) ingestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	fileName := filepath.Base(filePath)
	fermentationID, err := uuid.Parse(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	if err != nil {
		return nil, fmt.Errorf("file name is not a fermentation id: %w", err)
	}

	f, err := s.repo.GetFermentation(ctx, fermentationID)
	if err != nil {
		return nil, fmt.Errorf("unknown fermentation %s: %w", fermentationID, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := &FileIngestionResult{}
	batch := make([]*models.Sample, 0, batchSize)
	timestamps := make([]time.Time, 0, batchSize)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.TotalRecords++

		record, err := parseLabLine(line)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		sample, err := record.ToSample(fermentationID)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("conversion_error")
			continue
		}

		if res := validation.ValidateSampleValue(sample.SampleType, sample.Value); !res.Valid {
			result.FailedRecords++
			s.metrics.RecordIngestionError("validation_error")
			continue
		}

		batch = append(batch, sample)
		timestamps = append(timestamps, sample.RecordedAt)

		if len(batch) >= batchSize {
			if err := s.flushBatch(ctx, f, batch, timestamps); err != nil {
				return nil, err
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
			timestamps = timestamps[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.flushBatch(ctx, f, batch, timestamps); err != nil {
			return nil, err
		}
		result.SuccessfulRecords += len(batch)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return result, nil
}

func (s *IngestionService) flushBatch(ctx context.Context, f *models.Fermentation, batch []*models.Sample, timestamps []time.Time) error {
	if res := validation.ValidateFermentationTimeline(f.StartedAt, timestamps); !res.Valid {
		s.metrics.RecordIngestionError("timeline_error")
		return fmt.Errorf("batch violates fermentation timeline: %d sample(s) predate start date", len(res.Errors))
	}

	if err := s.repo.CreateSamplesBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

// parseLabLine parses a single line from a lab export file.
func parseLabLine(line string) (*models.RawSampleRecord, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, fmt.Errorf("invalid line format: expected 3 or 4 fields, got %d", len(parts))
	}

	record := &models.RawSampleRecord{
		RecordedAt: strings.TrimSpace(parts[0]),
		SampleType: strings.TrimSpace(parts[1]),
		Value:      strings.TrimSpace(parts[2]),
	}
	if len(parts) == 4 {
		record.RecordedBy = strings.TrimSpace(parts[3])
	}

	return record, nil
}
