package schema

import (
	"encoding/json"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// Snapshot takes an immutable deep copy of a project, used only for change
// detection. The pending source file is excluded (it is transient state,
// not part of the persisted project).
func Snapshot(p *domain.Project) (*domain.Project, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var copy domain.Project
	if err := json.Unmarshal(data, &copy); err != nil {
		return nil, err
	}
	return &copy, nil
}

// Unchanged reports whether the edited project is semantically identical to
// the snapshot. Comparison is structural over the whole project graph and
// list order is significant.
func Unchanged(snapshot, edited *domain.Project) bool {
	if snapshot == nil || edited == nil {
		return false
	}

	a, err := json.Marshal(snapshot)
	if err != nil {
		return false
	}
	b, err := json.Marshal(edited)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}
