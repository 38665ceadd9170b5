package bootstrap

import (
	"database/sql"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/csvguard/csvguard-backend/internal/auth"
	"github.com/csvguard/csvguard-backend/internal/logging"
	projecthttp "github.com/csvguard/csvguard-backend/internal/projects/http"
	"github.com/csvguard/csvguard-backend/internal/projects/repository"
	"github.com/csvguard/csvguard-backend/internal/projects/service"
	"github.com/csvguard/csvguard-backend/internal/rules"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	DatasetDB   *sql.DB
	Redis       *redis.Client
	Verifier    auth.TokenVerifier
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "service": dep.ServiceName, "version": dep.Version})
	})

	registry := rules.NewRegistry()
	repo := repository.NewProjectRepository(dep.DB)
	datasets := repository.NewDatasetRepository(dep.DatasetDB)

	var catalogCache *repository.CatalogCache
	if dep.Redis != nil {
		catalogCache = repository.NewCatalogCache(dep.Redis)
	}

	projects := service.NewProjectService(repo, datasets, registry, catalogCache)
	ingest := service.NewIngestService(repo, datasets, registry)

	api := r.Group("/api/v1")
	api.Use(RequestIDMiddleware())
	if dep.Verifier != nil {
		api.Use(auth.Middleware(dep.Verifier))
	}

	projecthttp.Register(api, projects, ingest)

	return r
}

// RequestIDMiddleware tags each request with an id for log correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), rid))
		c.Header("X-Request-Id", rid)
		c.Next()
	}
}
