package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/fieldsight/internal/api/handlers"
	"github.com/your-org/fieldsight/internal/api/ws"
	"github.com/your-org/fieldsight/internal/auth"
	"github.com/your-org/fieldsight/internal/catalog"
	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/internal/facts"
	"github.com/your-org/fieldsight/internal/inference"
	"github.com/your-org/fieldsight/internal/pipeline"
	"github.com/your-org/fieldsight/internal/queue"
	"github.com/your-org/fieldsight/internal/storage"
)

type RouterConfig struct {
	Auth       config.AuthConfig
	ServiceKey string
	DB         *storage.PostgresStore
	Artifacts  *storage.ArtifactStore
	Producer   *queue.Producer
	Hub        *ws.Hub
	Pipeline   *pipeline.Orchestrator
	Catalog    *catalog.Catalog
	Facts      *facts.Client
	Inference  *inference.Client
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Artifacts, cfg.Producer, cfg.Inference)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1. Requests without a token run as guest accounts.
	v1 := r.Group("/v1")
	v1.Use(auth.AccountMiddleware(cfg.Auth.JWTSecret))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Captures
	captureH := handlers.NewCaptureHandler(cfg.Pipeline)
	v1.POST("/captures", captureH.Create)

	// Observations (registered accounts only)
	obsH := handlers.NewObservationHandler(cfg.DB, cfg.Catalog)
	v1.GET("/markers", auth.RequireRegistered(), obsH.ListMarkers)
	v1.GET("/sights", auth.RequireRegistered(), obsH.ListSights)

	// Catalog
	catalogH := handlers.NewCatalogHandler(cfg.Catalog, cfg.Facts)
	v1.GET("/classes", catalogH.ListClasses)
	v1.GET("/facts/:class", catalogH.Fact)

	// Images
	imageH := handlers.NewImageHandler(cfg.Artifacts)
	v1.GET("/images/*key", imageH.Get)

	// Token issuance for the companion auth service
	tokenH := handlers.NewTokenHandler(cfg.Auth)
	v1.POST("/tokens", auth.ServiceKeyMiddleware(cfg.ServiceKey), tokenH.Issue)

	return r
}
