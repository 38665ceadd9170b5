package editor

import (
	"errors"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// ErrNotFound is returned by collaborators when a project id does not exist.
var ErrNotFound = errors.New("project not found")

// RemoteRejection is a create or update refused by the collaborator with a
// message, as opposed to a transport failure.
type RemoteRejection struct {
	Message     string
	FieldErrors map[string]string
}

func (e *RemoteRejection) Error() string {
	return e.Message
}

// IngestRejection is a dataset refused by the collaborator. Row-level detail
// is preserved in full.
type IngestRejection struct {
	Message        string
	RowErrors      []domain.RowError
	ExpectedFields []string
}

func (e *IngestRejection) Error() string {
	return e.Message
}
