package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/csvguard/csvguard-backend/internal/logging"
	"github.com/csvguard/csvguard-backend/internal/projects/domain"
	"github.com/csvguard/csvguard-backend/internal/rules"
)

// IngestError reports a dataset that failed validation against its project.
// The report carries row-level detail for the user; the project it targeted
// has already been rolled back by the time this error is returned.
type IngestError struct {
	Report domain.IngestReport
}

func (e *IngestError) Error() string {
	return e.Report.Message
}

// ProjectStore is the slice of the project repository ingestion needs.
type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	DeleteMany(ctx context.Context, ids []int64) error
}

// DatasetStore manages the per-project data tables.
type DatasetStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	CreateTable(ctx context.Context, table string, fields []domain.FieldDefinition) error
	ReplaceRows(ctx context.Context, table string, headers []string, rows [][]string) error
}

// IngestService validates an uploaded CSV against its project's schema and
// rules, and commits it to the project's data table. Project creation and
// ingestion are two non-atomic steps: any ingestion failure deletes the
// project so no project is left without a validated dataset.
type IngestService struct {
	repo     ProjectStore
	datasets DatasetStore
	registry *rules.Registry
}

// NewIngestService creates a new ingest service.
func NewIngestService(repo ProjectStore, datasets DatasetStore, registry *rules.Registry) *IngestService {
	return &IngestService{
		repo:     repo,
		datasets: datasets,
		registry: registry,
	}
}

// Ingest runs the full ingestion pipeline for one project and file.
func (s *IngestService) Ingest(ctx context.Context, projectID int64, file []byte) error {
	logger := logging.NewLogger(ctx)

	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	headers, records, err := parseCSV(file)
	if err != nil {
		return s.fail(ctx, p, domain.IngestReport{Message: fmt.Sprintf("could not parse the file: %v", err)})
	}

	expected := fieldNames(p.Schema)
	if !sameNameSet(headers, expected) {
		return s.fail(ctx, p, domain.IngestReport{
			Message:        "the file schema is not correct",
			ExpectedFields: expected,
		})
	}

	for _, rule := range p.Rules {
		if _, ok := s.registry.Get(rule.RuleName); !ok {
			return s.fail(ctx, p, domain.IngestReport{
				Message: fmt.Sprintf("validation rule %q does not exist", rule.RuleName),
			})
		}
		if missing := s.registry.MissingParams(rule.RuleName, rule.Params); len(missing) > 0 {
			return s.fail(ctx, p, domain.IngestReport{
				Message: fmt.Sprintf("rule %q is missing required parameters: %s", rule.RuleName, strings.Join(missing, ", ")),
			})
		}
	}

	rowErrors := s.checkRows(p, headers, records)
	if len(rowErrors) > 0 {
		return s.fail(ctx, p, domain.IngestReport{
			Message:   "the file failed validation",
			RowErrors: rowErrors,
		})
	}

	exists, err := s.datasets.TableExists(ctx, p.TableName)
	if err != nil {
		return s.failTransport(ctx, p, err)
	}
	if exists {
		return s.fail(ctx, p, domain.IngestReport{
			Message: fmt.Sprintf("table %q already exists", strings.ToLower(p.TableName)),
		})
	}

	if err := s.datasets.CreateTable(ctx, p.TableName, p.Schema); err != nil {
		return s.failTransport(ctx, p, err)
	}
	if err := s.datasets.ReplaceRows(ctx, p.TableName, headers, records); err != nil {
		return s.failTransport(ctx, p, err)
	}

	logger.LogInfof("ingest", "committed %d rows to table %s for project %d", len(records), p.TableName, projectID)
	return nil
}

// checkRows applies every bound rule to every row and collects all failures.
func (s *IngestService) checkRows(p *domain.Project, headers []string, records [][]string) []domain.RowError {
	column := make(map[string]int, len(headers))
	for i, h := range headers {
		column[strings.ToLower(h)] = i
	}

	var out []domain.RowError
	for rowIdx, record := range records {
		for _, rule := range p.Rules {
			idx, ok := column[strings.ToLower(rule.FieldName)]
			if !ok || idx >= len(record) {
				out = append(out, domain.RowError{
					RowIndex: rowIdx + 1,
					Field:    rule.FieldName,
					Message:  fmt.Sprintf("column %q not present in the file", rule.FieldName),
				})
				continue
			}

			checker, _ := s.registry.Get(rule.RuleName)
			value := record[idx]
			if valid, message := checker.Validate(value, rule.Params); !valid {
				if message == "" {
					message = rule.ErrorMessage
				}
				out = append(out, domain.RowError{
					RowIndex: rowIdx + 1,
					Field:    rule.FieldName,
					Value:    value,
					Message:  message,
				})
			}
		}
	}
	return out
}

// fail rolls back the project and returns the report as an IngestError.
func (s *IngestService) fail(ctx context.Context, p *domain.Project, report domain.IngestReport) error {
	s.rollback(ctx, p)
	return &IngestError{Report: report}
}

// failTransport rolls back the project and propagates an internal error.
func (s *IngestService) failTransport(ctx context.Context, p *domain.Project, err error) error {
	s.rollback(ctx, p)
	return fmt.Errorf("ingest project %d: %w", p.ID, err)
}

// rollback deletes the project whose ingestion failed. Its own failure is
// logged but never masks the ingestion error.
func (s *IngestService) rollback(ctx context.Context, p *domain.Project) {
	logger := logging.NewLogger(ctx)
	if err := s.repo.DeleteMany(ctx, []int64{p.ID}); err != nil {
		logger.LogErrorf("ingest_rollback", "delete project %d failed: %v", p.ID, err)
		return
	}
	logger.LogInfof("ingest_rollback", "deleted project %d after failed ingestion", p.ID)
}

func parseCSV(file []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(file))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}
	return rows[0], rows[1:], nil
}

func fieldNames(fields []domain.FieldDefinition) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, strings.ToLower(f.Name))
	}
	sort.Strings(names)
	return names
}

// sameNameSet compares the CSV header set with the schema field-name set,
// case-insensitively and ignoring order.
func sameNameSet(headers, expected []string) bool {
	if len(headers) != len(expected) {
		return false
	}

	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	sort.Strings(lowered)

	for i := range lowered {
		if lowered[i] != expected[i] {
			return false
		}
	}
	return true
}
