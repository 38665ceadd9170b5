package editor

import (
	"context"
	"sync"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

type fakeCollab struct {
	mu sync.Mutex

	project    *RemoteProject
	projectErr error
	catalog    []string
	catalogErr error
	projects   []domain.Project
	listErr    error
	createID   int64
	createErr  error
	updateErr  error
	deleteErr  error
	uploadErr  error

	created []*domain.Project
	updated []int64
	deleted [][]int64
	uploads []int64
}

func (f *fakeCollab) FetchProject(ctx context.Context, id int64) (*RemoteProject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return f.project, nil
}

func (f *fakeCollab) FetchRuleCatalog(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeCollab) ListProjects(ctx context.Context) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.projects, nil
}

func (f *fakeCollab) CreateProject(ctx context.Context, p *domain.Project) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, p)
	return f.createID, nil
}

func (f *fakeCollab) UpdateProject(ctx context.Context, id int64, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeCollab) DeleteProjects(ctx context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, ids)
	return nil
}

func (f *fakeCollab) UploadDataset(ctx context.Context, projectID int64, filename string, file []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, projectID)
	return f.uploadErr
}

func (f *fakeCollab) deletedCalls() [][]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]int64, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func (f *fakeCollab) updatedCalls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.updated))
	copy(out, f.updated)
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func (r *recordingNotifier) hasDetail(detail string) bool {
	for _, n := range r.all() {
		if n.Detail == detail {
			return true
		}
	}
	return false
}

type fakeIdentity struct {
	name  string
	token string
}

func (f fakeIdentity) DisplayName() string { return f.name }
func (f fakeIdentity) Token() string       { return f.token }

type fakeComp struct {
	mu    sync.Mutex
	calls []int64
}

func (f *fakeComp) RollbackCreate(ctx context.Context, projectID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, projectID)
}

func (f *fakeComp) rollbacks() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.calls))
	copy(out, f.calls)
	return out
}
