package http

// deleteReq carries the ids for a bulk delete.
type deleteReq struct {
	ProjectIDs []int64 `json:"project_ids"`
}

// catalogEntry is one rule in the catalog response.
type catalogEntry struct {
	RuleName string `json:"nombre_regla"`
}
