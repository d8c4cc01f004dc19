package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/deptcms/portal/internal/app/controllers"
	"github.com/deptcms/portal/internal/app/migrations"
	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/app/repositories"
	"github.com/deptcms/portal/internal/app/routes"
	"github.com/deptcms/portal/internal/app/services"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/config"
	"github.com/deptcms/portal/internal/db"
	"github.com/deptcms/portal/internal/middleware"
	"github.com/deptcms/portal/internal/pkg/auth"
	"github.com/deptcms/portal/internal/pkg/filestorage"
	"github.com/deptcms/portal/internal/pkg/logger"
	"github.com/deptcms/portal/internal/pkg/staging"
	"github.com/deptcms/portal/internal/seed"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *repositories.Repositories
	Services       *services.Services
	Attachments    *Attachments
	JWTService     *auth.JWTService
	AuthMiddleware *middleware.AuthMiddleware
	Controllers    *routes.Controllers
	Logger         zerolog.Logger
}

// Attachments bundles the attachment store and the components built on it
type Attachments struct {
	Store       filestorage.Store
	Local       *filestorage.LocalStorage // set only for the local driver
	Stage       *staging.Stage
	Coordinator *attachment.Coordinator
	Reconciler  *attachment.Reconciler
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: logger.ParseFormat(cfg.Logging.Format),
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL and applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	applied, err := migrations.NewMigrator(database.Pool, logger.WithComponent("migrations")).Up(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations complete")

	return database, nil
}

// SetupAttachments builds the configured attachment store, the local stage,
// the coordinator and the cleanup reconciler.
func SetupAttachments(ctx context.Context, cfg *config.Config, intents attachment.IntentStore, lgr zerolog.Logger) (*Attachments, error) {
	a := &Attachments{}

	switch strings.ToLower(cfg.Attachments.Driver) {
	case config.DriverDrive:
		drive, err := filestorage.NewDriveStorage(ctx, filestorage.DriveConfig{
			CredentialsFile: cfg.Attachments.CredentialsFile,
			RequestTimeout:  cfg.Attachments.RequestTimeout,
		}, logger.WithComponent("drive"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize drive storage: %w", err)
		}
		a.Store = drive
	case config.DriverLocal:
		baseURL := strings.TrimRight(cfg.Server.PublicBaseURL, "/") + "/storage"
		local, err := filestorage.NewLocalStorage(cfg.Attachments.LocalPath, baseURL, logger.WithComponent("local-storage"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		a.Store = local
		a.Local = local
	default:
		return nil, fmt.Errorf("unknown attachments driver %q", cfg.Attachments.Driver)
	}
	lgr.Info().Str("driver", cfg.Attachments.Driver).Msg("Attachment store configured")

	stage, err := staging.New(cfg.Server.StagePath, logger.WithComponent("stage"))
	if err != nil {
		return nil, err
	}
	a.Stage = stage

	a.Coordinator = attachment.NewCoordinator(a.Store, cfg.Attachments.FolderID, logger.WithComponent("attachments"))
	a.Reconciler = attachment.NewReconciler(a.Coordinator, intents, attachment.ReconcilerConfig{
		Schedule:    cfg.Reconciler.Schedule,
		BatchSize:   cfg.Reconciler.BatchSize,
		MaxAttempts: cfg.Reconciler.MaxAttempts,
		RunTimeout:  cfg.Reconciler.RunTimeout,
	}, logger.WithComponent("reconciler"))

	return a, nil
}

// BuildDependencies initializes repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = repositories.NewRepositories(database.Pool)

	var err error
	deps.Attachments, err = SetupAttachments(ctx, cfg, deps.Repos.Intents, lgr)
	if err != nil {
		return nil, err
	}

	deps.JWTService = auth.NewJWTService(auth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.JWTService)

	deps.Services = services.NewServices(deps.Repos, services.AttachmentDeps{
		Files:   deps.Attachments.Coordinator,
		Stage:   deps.Attachments.Stage,
		Intents: deps.Repos.Intents,
		Logger:  lgr,
	}, deps.JWTService, lgr)

	if err := seed.CreateDefaultAdmin(ctx, deps.Services.Auth, cfg, lgr); err != nil {
		// The console stays usable with accounts created earlier
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	stage := deps.Attachments.Stage
	svc := deps.Services
	deps.Controllers = &routes.Controllers{
		Auth:   controllers.NewAuthController(svc.Auth, lgr),
		Health: controllers.NewHealthController(database.Pool),

		Faculty:           controllers.NewResourceController[models.Faculty](svc.Faculty, stage, lgr),
		Events:            controllers.NewResourceController[models.Event](svc.Events, stage, lgr),
		Notices:           controllers.NewResourceController[models.Notice](svc.Notices, stage, lgr),
		Gallery:           controllers.NewResourceController[models.GalleryItem](svc.Gallery, stage, lgr),
		Timetables:        controllers.NewResourceController[models.Timetable](svc.Timetables, stage, lgr),
		AcademicResources: controllers.NewResourceController[models.AcademicResource](svc.AcademicResources, stage, lgr),
		Alumni:            controllers.NewResourceController[models.Alumni](svc.Alumni, stage, lgr),
		MentorMentee:      controllers.NewResourceController[models.MentorMentee](svc.MentorMentee, stage, lgr),
		Achievements:      controllers.NewResourceController[models.Achievement](svc.Achievements, stage, lgr),
	}
	if deps.Attachments.Local != nil {
		deps.Controllers.Storage = controllers.NewStorageController(deps.Attachments.Local)
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	middleware.RegisterFieldNames()

	maxBody := cfg.Server.MaxUploadMB << 20
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger.WithComponent("http")),
		middleware.SecurityHeaders(),
		middleware.Metrics(),
		middleware.MaxBodySize(maxBody),
	)

	routes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "RES_001", "message": "Route not found"}})
	})

	return router
}
