package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/csvguard/csvguard-backend/internal/logging"
	"github.com/csvguard/csvguard-backend/internal/projects/domain"
	"github.com/csvguard/csvguard-backend/internal/projects/repository"
	"github.com/csvguard/csvguard-backend/internal/rules"
)

// ProjectService handles project-related business logic.
type ProjectService struct {
	repo     *repository.ProjectRepository
	datasets *repository.DatasetRepository
	registry *rules.Registry
	catalog  *repository.CatalogCache
}

// NewProjectService creates a new project service.
func NewProjectService(repo *repository.ProjectRepository, datasets *repository.DatasetRepository, registry *rules.Registry, catalog *repository.CatalogCache) *ProjectService {
	return &ProjectService{
		repo:     repo,
		datasets: datasets,
		registry: registry,
		catalog:  catalog,
	}
}

// Create registers a new project. Table and field names are lowered so they
// match the data table created at ingestion time.
func (s *ProjectService) Create(ctx context.Context, p *domain.Project) (int64, error) {
	normalize(p)

	if err := s.checkRuleNames(p.Rules); err != nil {
		return 0, err
	}

	return s.repo.Create(ctx, p)
}

// Get fetches a project together with its ingested dataset.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.datasets.FetchRows(ctx, p.TableName)
	if err != nil {
		return nil, err
	}
	p.Table = &domain.TableSnapshot{TableName: strings.ToLower(p.TableName), Rows: rows}
	return p, nil
}

// List returns all projects with schemas and rules attached.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.repo.List(ctx)
}

// Update replaces a project's editable state.
func (s *ProjectService) Update(ctx context.Context, id int64, p *domain.Project) error {
	normalize(p)

	if err := s.checkRuleNames(p.Rules); err != nil {
		return err
	}

	return s.repo.Update(ctx, id, p)
}

// DeleteMany removes projects by id.
func (s *ProjectService) DeleteMany(ctx context.Context, ids []int64) error {
	return s.repo.DeleteMany(ctx, ids)
}

// Catalog returns the rule names available to editing sessions, served from
// the cache when warm. Cache failures fall back to the registry.
func (s *ProjectService) Catalog(ctx context.Context) []string {
	logger := logging.NewLogger(ctx)

	if s.catalog != nil {
		names, err := s.catalog.Get(ctx)
		if err == nil {
			return names
		}
		if !repository.IsMiss(err) {
			logger.LogWarnf("catalog", "cache read failed: %v", err)
		}
	}

	names := s.registry.Catalog()
	if s.catalog != nil {
		if err := s.catalog.Set(ctx, names); err != nil {
			logger.LogWarnf("catalog", "cache write failed: %v", err)
		}
	}
	return names
}

func (s *ProjectService) checkRuleNames(bound []domain.ValidationRule) error {
	for _, rule := range bound {
		if _, ok := s.registry.Get(rule.RuleName); !ok {
			return fmt.Errorf("validation rule %q does not exist", rule.RuleName)
		}
	}
	return nil
}

func normalize(p *domain.Project) {
	p.TableName = strings.ToLower(p.TableName)
	for i := range p.Schema {
		p.Schema[i].Name = strings.ToLower(p.Schema[i].Name)
	}
	for i := range p.Rules {
		p.Rules[i].FieldName = strings.ToLower(p.Rules[i].FieldName)
	}
}
