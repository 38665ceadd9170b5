package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/csvguard/csvguard-backend/internal/auth"
	"github.com/csvguard/csvguard-backend/internal/projects/domain"
	"github.com/csvguard/csvguard-backend/internal/projects/service"
)

// Handler exposes the project API mirrored by the editor core's collaborator
// contracts.
type Handler struct {
	projects *service.ProjectService
	ingest   *service.IngestService
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return
	}

	p, err := h.projects.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrProjectNotFound) || errors.Is(err, domain.ErrTableNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) create(c *gin.Context) {
	var p domain.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if fieldErrors := requiredFields(&p); len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "errors": fieldErrors})
		return
	}

	if p.ModifiedBy == "" {
		p.ModifiedBy = auth.UserName(c)
	}

	id, err := h.projects.Create(c.Request.Context(), &p)
	if errors.Is(err, domain.ErrDuplicateProject) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project_id": id})
}

func (h *Handler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return
	}

	var p domain.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if fieldErrors := requiredFields(&p); len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "errors": fieldErrors})
		return
	}

	if p.ModifiedBy == "" {
		p.ModifiedBy = auth.UserName(c)
	}

	err = h.projects.Update(c.Request.Context(), id, &p)
	if errors.Is(err, domain.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteMany(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ProjectIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "a list of project ids is required"})
		return
	}

	err := h.projects.DeleteMany(c.Request.Context(), req.ProjectIDs)
	if errors.Is(err, domain.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) upload(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "no file was sent"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "could not read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "could not read file"})
		return
	}

	err = h.ingest.Ingest(c.Request.Context(), id, data)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "file processed and inserted successfully"})
		return
	}

	if errors.Is(err, domain.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}

	var ingestErr *service.IngestError
	if errors.As(err, &ingestErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":               false,
			"error":            ingestErr.Report.Message,
			"errores":          ingestErr.Report.RowErrors,
			"campos_esperados": ingestErr.Report.ExpectedFields,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

func (h *Handler) catalog(c *gin.Context) {
	names := h.projects.Catalog(c.Request.Context())

	entries := make([]catalogEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, catalogEntry{RuleName: name})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "validaciones": entries})
}

func requiredFields(p *domain.Project) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		out["nombre_proyecto"] = "is required"
	}
	if strings.TrimSpace(p.TableName) == "" {
		out["nombre_tabla"] = "is required"
	}
	return out
}
