package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	app "github.com/goldmine/exercise-archive/internal/application/upload"
	"github.com/goldmine/exercise-archive/internal/archive"
	"github.com/goldmine/exercise-archive/internal/classify"
	"github.com/goldmine/exercise-archive/internal/config"
	"github.com/goldmine/exercise-archive/internal/infrastructure/render"
	"github.com/goldmine/exercise-archive/internal/infrastructure/repository"
	"github.com/goldmine/exercise-archive/internal/infrastructure/storage"
	httpecho "github.com/goldmine/exercise-archive/internal/interfaces/http/echo"
)

func NewHTTPServer(cfg *config.Config, db *gorm.DB, pool *pgxpool.Pool, rdb *redis.Client) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	jobRepo := repository.NewUploadJobRepository(db)
	catalogRepo := repository.NewCatalogRepository(pool)
	stager := archive.NewStaging(cfg.Storage.StagingRoot, cfg.Upload.MaxFiles, cfg.Upload.MaxTotalBytes)
	media := storage.NewMediaStore(cfg.Storage.MediaRoot)
	classifier := classify.New(classify.Tokens{
		SeriesPrefixes:     cfg.Classifier.SeriesPrefixes,
		SolutionIndicators: cfg.Classifier.SolutionIndicators,
	})
	producer := render.NewProducer(rdb, cfg.Redis.RenderQueue, cfg.Redis.EnqueueTimeout)

	createUpload := app.NewCreateUpload(jobRepo, stager, classifier, catalogRepo)
	getUpload := app.NewGetUpload(jobRepo)
	commitUpload := app.NewCommitUpload(jobRepo, stager, media, catalogRepo, producer)
	deleteUpload := app.NewDeleteUpload(jobRepo, stager)

	uploadHandler := httpecho.NewUploadHandler(createUpload, getUpload, commitUpload, deleteUpload)
	httpecho.RegisterRoutes(server, uploadHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return server
}
