package editor

import (
	"context"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// RemoteProject is a project as fetched from the collaborator. Schema and
// rule entries stay raw records so unrecognized attributes survive until the
// allow-list filter has partitioned them.
type RemoteProject struct {
	ID         int64                 `json:"id"`
	Name       string                `json:"nombre_proyecto"`
	TableName  string                `json:"nombre_tabla"`
	CreatedBy  string                `json:"creado_modificado_por"`
	CreatedAt  string                `json:"fecha_creacion"`
	UpdatedAt  string                `json:"fecha_actualizacion"`
	ModifiedBy string                `json:"usuario_modificacion"`
	Schema     []map[string]any      `json:"esquemas"`
	Rules      []map[string]any      `json:"validaciones"`
	Table      *domain.TableSnapshot `json:"tabla_asociada"`
}

// Collaborator is the remote side of an editing session. Implementations
// own transport, timeouts and credentials; the session treats any transport
// failure as a rejection of the operation that used it.
type Collaborator interface {
	FetchProject(ctx context.Context, id int64) (*RemoteProject, error)
	FetchRuleCatalog(ctx context.Context) ([]string, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) (int64, error)
	UpdateProject(ctx context.Context, id int64, p *domain.Project) error
	DeleteProjects(ctx context.Context, ids []int64) error
	UploadDataset(ctx context.Context, projectID int64, filename string, file []byte) error
}

// Identity supplies the authenticated user for audit stamps. A missing
// display name or token is passed through unchanged; the remote side is
// responsible for rejecting unauthenticated calls.
type Identity interface {
	DisplayName() string
	Token() string
}
