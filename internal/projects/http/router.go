package http

import (
	"github.com/gin-gonic/gin"

	"github.com/csvguard/csvguard-backend/internal/projects/service"
)

// Register wires the project and catalog routes into the API group.
func Register(rg *gin.RouterGroup, projects *service.ProjectService, ingest *service.IngestService) {
	h := &Handler{projects: projects, ingest: ingest}

	pg := rg.Group("/projects")
	pg.GET("/projects", h.list)
	pg.GET("/projectsById/:id", h.get)
	pg.PUT("/", h.create)
	pg.PUT("/:id", h.update)
	pg.DELETE("/delete", h.deleteMany)
	pg.POST("/upload/:id", h.upload)

	rg.GET("/validations/", h.catalog)
}
