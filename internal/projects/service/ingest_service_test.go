package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
	"github.com/csvguard/csvguard-backend/internal/rules"
)

func TestParseCSV(t *testing.T) {
	t.Run("splits headers from records", func(t *testing.T) {
		headers, records, err := parseCSV([]byte("nombre,precio\nmesa,10\nsilla,5\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"nombre", "precio"}, headers)
		assert.Equal(t, [][]string{{"mesa", "10"}, {"silla", "5"}}, records)
	})

	t.Run("header only file has no records", func(t *testing.T) {
		headers, records, err := parseCSV([]byte("nombre,precio\n"))
		require.NoError(t, err)
		assert.Len(t, headers, 2)
		assert.Empty(t, records)
	})

	t.Run("empty file is an error", func(t *testing.T) {
		_, _, err := parseCSV([]byte(""))
		assert.Error(t, err)
	})

	t.Run("ragged rows are an error", func(t *testing.T) {
		_, _, err := parseCSV([]byte("a,b\n1\n"))
		assert.Error(t, err)
	})
}

func TestSameNameSet(t *testing.T) {
	expected := []string{"nombre", "precio"}

	t.Run("order and case are ignored", func(t *testing.T) {
		assert.True(t, sameNameSet([]string{"Precio", " NOMBRE "}, expected))
	})

	t.Run("missing column", func(t *testing.T) {
		assert.False(t, sameNameSet([]string{"nombre"}, expected))
	})

	t.Run("extra column", func(t *testing.T) {
		assert.False(t, sameNameSet([]string{"nombre", "precio", "stock"}, expected))
	})

	t.Run("renamed column", func(t *testing.T) {
		assert.False(t, sameNameSet([]string{"nombre", "costo"}, expected))
	})
}

func TestFieldNames(t *testing.T) {
	names := fieldNames([]domain.FieldDefinition{{Name: "Precio"}, {Name: "nombre"}})
	assert.Equal(t, []string{"nombre", "precio"}, names)
}

func TestCheckRows(t *testing.T) {
	svc := NewIngestService(nil, nil, rules.NewRegistry())
	project := &domain.Project{
		Rules: []domain.ValidationRule{
			{FieldName: "precio", RuleName: "positivo", ErrorMessage: "price must be positive", Params: map[string]any{}},
			{FieldName: "nombre", RuleName: "no_vacio", ErrorMessage: "name required", Params: map[string]any{}},
		},
	}
	headers := []string{"nombre", "precio"}

	t.Run("clean rows produce no errors", func(t *testing.T) {
		errs := svc.checkRows(project, headers, [][]string{{"mesa", "10"}, {"silla", "5"}})
		assert.Empty(t, errs)
	})

	t.Run("all failures across all rows are collected", func(t *testing.T) {
		errs := svc.checkRows(project, headers, [][]string{
			{"", "-1"},
			{"silla", "5"},
			{"mesa", "-3"},
		})
		require.Len(t, errs, 3)

		assert.Equal(t, 1, errs[0].RowIndex)
		assert.Equal(t, "precio", errs[0].Field)
		assert.Equal(t, "-1", errs[0].Value)
		assert.Equal(t, "value must be positive", errs[0].Message)

		assert.Equal(t, 1, errs[1].RowIndex)
		assert.Equal(t, "nombre", errs[1].Field)

		assert.Equal(t, 3, errs[2].RowIndex)
		assert.Equal(t, "precio", errs[2].Field)
	})

	t.Run("missing column is reported per row", func(t *testing.T) {
		p := &domain.Project{
			Rules: []domain.ValidationRule{
				{FieldName: "stock", RuleName: "positivo", Params: map[string]any{}},
			},
		}
		errs := svc.checkRows(p, headers, [][]string{{"mesa", "10"}})
		require.Len(t, errs, 1)
		assert.Equal(t, `column "stock" not present in the file`, errs[0].Message)
	})

	t.Run("header matching is case insensitive", func(t *testing.T) {
		errs := svc.checkRows(project, []string{"Nombre", "PRECIO"}, [][]string{{"mesa", "10"}})
		assert.Empty(t, errs)
	})
}

func TestIngestError(t *testing.T) {
	err := &IngestError{Report: domain.IngestReport{Message: "the file failed validation"}}
	assert.Equal(t, "the file failed validation", err.Error())
}

type fakeProjectStore struct {
	project *domain.Project
	getErr  error
	deleted [][]int64
}

func (f *fakeProjectStore) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.project, nil
}

func (f *fakeProjectStore) DeleteMany(ctx context.Context, ids []int64) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

type fakeDatasetStore struct {
	exists    bool
	existsErr error
	created   []string
	replaced  [][]string
}

func (f *fakeDatasetStore) TableExists(ctx context.Context, table string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeDatasetStore) CreateTable(ctx context.Context, table string, fields []domain.FieldDefinition) error {
	f.created = append(f.created, table)
	return nil
}

func (f *fakeDatasetStore) ReplaceRows(ctx context.Context, table string, headers []string, rows [][]string) error {
	f.replaced = rows
	return nil
}

func ingestFixture() *domain.Project {
	return &domain.Project{
		ID:        42,
		Name:      "inventory",
		TableName: "productos",
		Schema: []domain.FieldDefinition{
			{Name: "nombre", DataType: domain.TypeString, Required: true},
			{Name: "precio", DataType: domain.TypeNumber, Required: true},
		},
		Rules: []domain.ValidationRule{
			{FieldName: "precio", RuleName: "positivo", ErrorMessage: "price must be positive", Params: map[string]any{}},
		},
	}
}

func TestIngest(t *testing.T) {
	newSvc := func(store *fakeProjectStore, datasets *fakeDatasetStore) *IngestService {
		return NewIngestService(store, datasets, rules.NewRegistry())
	}

	t.Run("valid file is committed", func(t *testing.T) {
		store := &fakeProjectStore{project: ingestFixture()}
		datasets := &fakeDatasetStore{}

		err := newSvc(store, datasets).Ingest(context.Background(), 42, []byte("nombre,precio\nmesa,10\nsilla,5\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"productos"}, datasets.created)
		assert.Len(t, datasets.replaced, 2)
		assert.Empty(t, store.deleted)
	})

	t.Run("column mismatch reports expected fields and deletes the project", func(t *testing.T) {
		store := &fakeProjectStore{project: ingestFixture()}
		datasets := &fakeDatasetStore{}

		err := newSvc(store, datasets).Ingest(context.Background(), 42, []byte("nombre,stock\nmesa,3\n"))

		var ingestErr *IngestError
		require.ErrorAs(t, err, &ingestErr)
		assert.Equal(t, "the file schema is not correct", ingestErr.Report.Message)
		assert.Equal(t, []string{"nombre", "precio"}, ingestErr.Report.ExpectedFields)
		assert.Equal(t, [][]int64{{42}}, store.deleted)
		assert.Empty(t, datasets.created)
	})

	t.Run("row failures are reported in full and delete the project", func(t *testing.T) {
		store := &fakeProjectStore{project: ingestFixture()}
		datasets := &fakeDatasetStore{}

		err := newSvc(store, datasets).Ingest(context.Background(), 42, []byte("nombre,precio\nmesa,-5\nsilla,-1\n"))

		var ingestErr *IngestError
		require.ErrorAs(t, err, &ingestErr)
		assert.Equal(t, "the file failed validation", ingestErr.Report.Message)
		require.Len(t, ingestErr.Report.RowErrors, 2)
		assert.Equal(t, 1, ingestErr.Report.RowErrors[0].RowIndex)
		assert.Equal(t, "-5", ingestErr.Report.RowErrors[0].Value)
		assert.Equal(t, [][]int64{{42}}, store.deleted)
	})

	t.Run("unknown bound rule fails before row checks", func(t *testing.T) {
		p := ingestFixture()
		p.Rules[0].RuleName = "ghost"
		store := &fakeProjectStore{project: p}

		err := newSvc(store, &fakeDatasetStore{}).Ingest(context.Background(), 42, []byte("nombre,precio\nmesa,10\n"))

		var ingestErr *IngestError
		require.ErrorAs(t, err, &ingestErr)
		assert.Contains(t, ingestErr.Report.Message, `"ghost" does not exist`)
		assert.Equal(t, [][]int64{{42}}, store.deleted)
	})

	t.Run("missing rule parameters fail before row checks", func(t *testing.T) {
		p := ingestFixture()
		p.Rules[0] = domain.ValidationRule{FieldName: "precio", RuleName: "rango", Params: map[string]any{"min": 0}}
		store := &fakeProjectStore{project: p}

		err := newSvc(store, &fakeDatasetStore{}).Ingest(context.Background(), 42, []byte("nombre,precio\nmesa,10\n"))

		var ingestErr *IngestError
		require.ErrorAs(t, err, &ingestErr)
		assert.Contains(t, ingestErr.Report.Message, "missing required parameters: max")
		assert.Equal(t, [][]int64{{42}}, store.deleted)
	})

	t.Run("existing table fails the ingestion", func(t *testing.T) {
		store := &fakeProjectStore{project: ingestFixture()}
		datasets := &fakeDatasetStore{exists: true}

		err := newSvc(store, datasets).Ingest(context.Background(), 42, []byte("nombre,precio\nmesa,10\n"))

		var ingestErr *IngestError
		require.ErrorAs(t, err, &ingestErr)
		assert.Contains(t, ingestErr.Report.Message, "already exists")
		assert.Equal(t, [][]int64{{42}}, store.deleted)
		assert.Empty(t, datasets.created)
	})

	t.Run("missing project propagates without rollback", func(t *testing.T) {
		store := &fakeProjectStore{getErr: domain.ErrProjectNotFound}

		err := newSvc(store, &fakeDatasetStore{}).Ingest(context.Background(), 9, []byte("nombre,precio\n"))
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
		assert.Empty(t, store.deleted)
	})

	t.Run("unparseable file deletes the project", func(t *testing.T) {
		store := &fakeProjectStore{project: ingestFixture()}

		err := newSvc(store, &fakeDatasetStore{}).Ingest(context.Background(), 42, []byte(""))

		var ingestErr *IngestError
		require.ErrorAs(t, err, &ingestErr)
		assert.Contains(t, ingestErr.Report.Message, "could not parse the file")
		assert.Equal(t, [][]int64{{42}}, store.deleted)
	})
}
