package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/csvguard/csvguard-backend/internal/logging"
	"github.com/csvguard/csvguard-backend/internal/projects/domain"
	"github.com/csvguard/csvguard-backend/internal/projects/schema"
)

// Session owns one user's editing state: the in-memory project, the
// snapshot taken at load time, the rule catalog fetched once per session and
// the upload pipeline. It is constructed when the user enters the editor and
// torn down on navigation away; there are no process-wide singletons.
//
// Every failure is caught here and converted to a Notice; no operation
// returns the session in an unusable state.
type Session struct {
	collab   Collaborator
	identity Identity
	notifier Notifier
	upload   *UploadPipeline

	mu            sync.Mutex
	loading       bool
	project       *domain.Project
	snapshot      *domain.Project
	schemaRecords []map[string]any
	ruleRecords   []map[string]any
	catalog       []string
	projects      []domain.Project
}

// NewSession creates an editing session over the given collaborator.
func NewSession(collab Collaborator, identity Identity, notifier Notifier) *Session {
	s := &Session{
		collab:   collab,
		identity: identity,
		notifier: notifier,
		catalog:  []string{},
	}
	s.upload = NewUploadPipeline(collab, notifier, s)
	return s
}

// Upload returns the session's upload pipeline.
func (s *Session) Upload() *UploadPipeline { return s.upload }

// Loading reports whether an operation is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Project returns the current in-memory project, nil when none is loaded.
func (s *Session) Project() *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Catalog returns the rule names fetched for this session.
func (s *Session) Catalog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Projects returns the cached project listing.
func (s *Session) Projects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects
}

// NewProject initializes an empty project for creation and fetches the rule
// catalog for the session.
func (s *Session) NewProject(ctx context.Context) {
	s.mu.Lock()
	s.project = &domain.Project{Schema: []domain.FieldDefinition{}, Rules: []domain.ValidationRule{}}
	s.snapshot = nil
	s.schemaRecords = nil
	s.ruleRecords = nil
	s.mu.Unlock()

	s.fetchCatalog(ctx)
}

// SetName sets the project display name from the editor.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project != nil {
		s.project.Name = name
	}
}

// SetTableName sets the associated table name from the editor.
func (s *Session) SetTableName(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project != nil {
		s.project.TableName = table
	}
}

// SetSchema replaces the schema editor buffer with raw records.
func (s *Session) SetSchema(records []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaRecords = records
}

// SetRules replaces the rules editor buffer with raw records.
func (s *Session) SetRules(records []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleRecords = records
}

// SchemaRecords returns the current schema editor buffer.
func (s *Session) SchemaRecords() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schemaRecords
}

// RuleRecords returns the current rules editor buffer.
func (s *Session) RuleRecords() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ruleRecords
}

// Load fetches the project and the rule catalog concurrently. Both must
// complete before the editor is considered populated; a snapshot of the
// mapped result is stored for change detection. A missing project gets a
// distinguishable message; any other fetch failure clears the in-memory
// project. A broken catalog degrades the session to an empty catalog
// instead of failing the load.
func (s *Session) Load(ctx context.Context, id int64) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	var (
		wg      sync.WaitGroup
		remote  *RemoteProject
		perr    error
		catalog []string
		cerr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		remote, perr = s.collab.FetchProject(ctx, id)
	}()
	go func() {
		defer wg.Done()
		catalog, cerr = s.collab.FetchRuleCatalog(ctx)
	}()
	wg.Wait()

	if perr != nil {
		if errors.Is(perr, ErrNotFound) {
			s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: perr.Error()})
		} else {
			s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "could not load the project data"})
		}
		s.mu.Lock()
		s.project = nil
		s.snapshot = nil
		s.mu.Unlock()
		return false
	}

	if cerr != nil {
		s.notifier.Notify(Notice{Severity: SeverityWarn, Summary: "Warning", Detail: "could not load the allowed validations"})
		catalog = []string{}
	}
	if catalog == nil {
		catalog = []string{}
	}

	fields := make([]map[string]any, 0, len(remote.Schema))
	for _, record := range remote.Schema {
		fields = append(fields, schema.FilterField(record))
	}
	rules := make([]map[string]any, 0, len(remote.Rules))
	for _, record := range remote.Rules {
		rules = append(rules, schema.FilterRule(record))
	}

	project := &domain.Project{
		ID:         remote.ID,
		Name:       remote.Name,
		TableName:  remote.TableName,
		CreatedBy:  remote.CreatedBy,
		CreatedAt:  remote.CreatedAt,
		UpdatedAt:  remote.UpdatedAt,
		ModifiedBy: remote.ModifiedBy,
		Schema:     mapFields(fields),
		Rules:      mapRules(rules),
		Table:      remote.Table,
	}

	snap, err := schema.Snapshot(project)
	if err != nil {
		s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "could not load the project data"})
		return false
	}

	s.mu.Lock()
	s.project = project
	s.snapshot = snap
	s.schemaRecords = fields
	s.ruleRecords = rules
	s.catalog = catalog
	s.mu.Unlock()
	return true
}

// Create validates the edited project and submits it. On success the upload
// pipeline is started for the selected file, bound to the assigned id so a
// rejected ingestion rolls the creation back.
func (s *Session) Create(ctx context.Context) bool {
	s.mu.Lock()
	project := s.project
	s.mu.Unlock()

	if project == nil || strings.TrimSpace(project.Name) == "" || strings.TrimSpace(project.TableName) == "" {
		s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "all fields must be completed"})
		return false
	}
	if !s.upload.FileSelected() {
		s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "a CSV file must be selected before continuing"})
		return false
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if name := s.identity.DisplayName(); name != "" {
		s.mu.Lock()
		s.project.ModifiedBy = name
		s.mu.Unlock()
	}

	if !s.validateEditorContent() {
		return false
	}

	s.mu.Lock()
	s.project.Schema = mapFields(filterAll(s.schemaRecords, schema.FilterField))
	s.project.Rules = mapRules(filterAll(s.ruleRecords, schema.FilterRule))
	submit := *s.project
	s.mu.Unlock()

	id, err := s.collab.CreateProject(ctx, &submit)
	if err != nil {
		var rejection *RemoteRejection
		if errors.As(err, &rejection) && rejection.Message != "" {
			s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: rejection.Message})
		} else {
			s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "could not create the project"})
		}
		return false
	}

	s.mu.Lock()
	s.project.ID = id
	s.mu.Unlock()
	s.notifier.Notify(Notice{Severity: SeveritySuccess, Summary: "Success", Detail: "project created successfully"})

	if err := s.upload.Start(ctx, id, true); err != nil {
		logging.NewLogger(ctx).LogError("create", err)
		return false
	}
	return true
}

// Update re-filters the live editor state, validates it, and submits only
// when the snapshot differ reports a change. The modifying user is stamped
// after the diff so an untouched project never issues a remote write.
func (s *Session) Update(ctx context.Context) bool {
	s.mu.Lock()
	project := s.project
	s.mu.Unlock()
	if project == nil {
		s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "no project is loaded"})
		return false
	}

	s.mu.Lock()
	s.schemaRecords = filterAll(s.schemaRecords, schema.FilterField)
	s.ruleRecords = filterAll(s.ruleRecords, schema.FilterRule)
	s.mu.Unlock()

	if !s.validateEditorContent() {
		return false
	}

	s.mu.Lock()
	s.project.Schema = mapFields(s.schemaRecords)
	s.project.Rules = mapRules(s.ruleRecords)
	updated := *s.project
	snapshot := s.snapshot
	s.mu.Unlock()

	if schema.Unchanged(snapshot, &updated) {
		s.notifier.Notify(Notice{Severity: SeverityInfo, Summary: "No changes", Detail: "there is nothing to update"})
		return true
	}

	if name := s.identity.DisplayName(); name != "" {
		updated.ModifiedBy = name
	}

	s.setLoading(true)
	defer s.setLoading(false)

	err := s.collab.UpdateProject(ctx, updated.ID, &updated)
	if err != nil {
		var rejection *RemoteRejection
		if errors.As(err, &rejection) && len(rejection.FieldErrors) > 0 {
			s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: formatFieldErrors(rejection.FieldErrors)})
		} else {
			s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "could not update the project"})
		}
		return false
	}

	s.mu.Lock()
	s.project.ModifiedBy = updated.ModifiedBy
	if snap, err := schema.Snapshot(s.project); err == nil {
		s.snapshot = snap
	}
	s.mu.Unlock()

	s.notifier.Notify(Notice{Severity: SeveritySuccess, Summary: "Success", Detail: "project updated successfully"})
	return true
}

// DeleteMany removes projects by id. An empty selection is rejected locally
// with a warning and never reaches the collaborator.
func (s *Session) DeleteMany(ctx context.Context, ids []int64) bool {
	if len(ids) == 0 {
		s.notifier.Notify(Notice{Severity: SeverityWarn, Summary: "Warning", Detail: "select at least one project to delete"})
		return false
	}

	if err := s.collab.DeleteProjects(ctx, ids); err != nil {
		s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "could not delete the projects"})
		return false
	}

	s.mu.Lock()
	remaining := s.projects[:0]
	for _, p := range s.projects {
		if !containsID(ids, p.ID) {
			remaining = append(remaining, p)
		}
	}
	s.projects = remaining
	s.mu.Unlock()

	s.notifier.Notify(Notice{Severity: SeveritySuccess, Summary: "Success", Detail: "projects deleted successfully"})
	s.RefreshProjects(ctx)
	return true
}

// RefreshProjects reloads the project listing.
func (s *Session) RefreshProjects(ctx context.Context) {
	items, err := s.collab.ListProjects(ctx)
	if err != nil {
		s.notifier.Notify(Notice{Severity: SeverityError, Summary: "Error", Detail: "could not load the projects"})
		return
	}
	s.mu.Lock()
	s.projects = items
	s.mu.Unlock()
}

// RollbackCreate is the compensating step for a creation whose ingestion
// failed: the just-created project is deleted so none is left without a
// validated dataset. Its own failure is logged and never masks the
// ingestion error already shown to the user.
func (s *Session) RollbackCreate(ctx context.Context, projectID int64) {
	logger := logging.NewLogger(ctx)
	if err := s.collab.DeleteProjects(ctx, []int64{projectID}); err != nil {
		logger.LogErrorf("rollback_create", "delete project %d failed: %v", projectID, err)
		return
	}
	s.notifier.Notify(Notice{Severity: SeverityInfo, Summary: "Info", Detail: "project deleted after a failed file upload"})
}

// validateEditorContent runs the consistency validator over the editor
// buffers and surfaces every violation. Hard errors block the save.
func (s *Session) validateEditorContent() bool {
	s.mu.Lock()
	fields := s.schemaRecords
	rules := s.ruleRecords
	catalog := s.catalog
	s.mu.Unlock()

	violations := schema.ValidateProject(fields, rules, catalog)
	blocked := false
	for _, v := range violations {
		severity := SeverityError
		if v.Soft {
			severity = SeverityWarn
		} else {
			blocked = true
		}
		s.notifier.Notify(Notice{Severity: severity, Summary: "Validation error", Detail: fmt.Sprintf("%s: %s", v.Path, v.Message)})
	}
	return !blocked
}

func (s *Session) fetchCatalog(ctx context.Context) {
	catalog, err := s.collab.FetchRuleCatalog(ctx)
	if err != nil {
		s.notifier.Notify(Notice{Severity: SeverityWarn, Summary: "Warning", Detail: "could not load the allowed validations"})
		catalog = []string{}
	}
	if catalog == nil {
		catalog = []string{}
	}
	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func filterAll(records []map[string]any, f func(map[string]any) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		out = append(out, f(record))
	}
	return out
}

func mapFields(records []map[string]any) []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, 0, len(records))
	for _, record := range records {
		out = append(out, schema.FieldFromRecord(record))
	}
	return out
}

func mapRules(records []map[string]any) []domain.ValidationRule {
	out := make([]domain.ValidationRule, 0, len(records))
	for _, record := range records {
		out = append(out, schema.RuleFromRecord(record))
	}
	return out
}

func formatFieldErrors(fieldErrors map[string]string) string {
	parts := make([]string, 0, len(fieldErrors))
	for field, message := range fieldErrors {
		parts = append(parts, fmt.Sprintf("field %q: %s", field, message))
	}
	return strings.Join(parts, ", ")
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
