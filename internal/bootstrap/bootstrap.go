package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yigit/classroom/internal/app/clients"
	appControllers "github.com/yigit/classroom/internal/app/controllers"
	appMigrations "github.com/yigit/classroom/internal/app/migrations"
	appRepos "github.com/yigit/classroom/internal/app/repositories"
	appRoutes "github.com/yigit/classroom/internal/app/routes"
	appServices "github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/config"
	"github.com/yigit/classroom/internal/db"
	appMiddleware "github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/helpers"
	"github.com/yigit/classroom/internal/pkg/logger"
	"github.com/yigit/classroom/internal/seed"
)

// Stores holds the connections the running service opened. Unused ones are nil.
type Stores struct {
	Postgres *db.PostgresDB
	Gorm     *gorm.DB
	Mongo    *db.MongoDB
}

// Close releases every open connection.
func (s *Stores) Close(ctx context.Context) error {
	var err error
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.Gorm != nil {
		err = errors.Join(err, db.CloseGorm(s.Gorm))
	}
	if s.Mongo != nil {
		err = errors.Join(err, s.Mongo.Close(ctx))
	}
	return err
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Controllers appRoutes.Controllers
	// Relay is set for student-service only.
	Relay  *appServices.CascadeRelay
	Logger zerolog.Logger
}

// ConfigPath returns CONFIG_PATH when set, else configs/<service>.yaml.
func ConfigPath(kind config.ServiceKind) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("configs", string(kind)+".yaml")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(kind config.ServiceKind) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath(kind), kind)
	if err != nil {
		logger.Error().Err(err).Str("service", string(kind)).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: cfg.Server.Name,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStores opens the stores kind needs and prepares their schema.
func SetupStores(ctx context.Context, cfg *config.Config, kind config.ServiceKind, lgr zerolog.Logger) (*Stores, error) {
	stores := &Stores{}
	var err error

	switch kind {
	case config.AnswerService:
		err = setupMongo(ctx, cfg, stores, lgr)
	case config.ExamService:
		err = setupGorm(ctx, cfg, stores, lgr)
	case config.CourseService, config.StudentService:
		err = setupPostgres(ctx, cfg, stores, lgr)
	default:
		err = fmt.Errorf("unknown service %q", kind)
	}
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}
	return stores, nil
}

func setupPostgres(ctx context.Context, cfg *config.Config, stores *Stores, lgr zerolog.Logger) error {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return err
	}
	stores.Postgres = database
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database.Pool, lgr).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

func setupGorm(ctx context.Context, cfg *config.Config, stores *Stores, lgr zerolog.Logger) error {
	lgr.Info().Msg("Establishing database connection...")
	gdb, err := db.NewGormDB(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return err
	}
	stores.Gorm = gdb

	repo := appRepos.NewExamRepository(gdb)
	if err := repo.AutoMigrate(); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("exam schema migration failed: %w", err)
	}

	if err := seed.CreateDefaultSubjects(ctx, repo, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default subjects, proceeding anyway...")
	}
	return nil
}

func setupMongo(ctx context.Context, cfg *config.Config, stores *Stores, lgr zerolog.Logger) error {
	lgr.Info().Msg("Establishing mongo connection...")
	mdb, err := db.NewMongoDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to mongo")
		return err
	}
	stores.Mongo = mdb

	if err := appRepos.NewAnswerRepository(mdb).EnsureIndexes(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to create answer indexes")
		return err
	}
	lgr.Info().Str("database", cfg.Mongo.Database).Msg("Mongo connection successfully established.")
	return nil
}

// BuildDependencies initializes repositories, clients, services, and controllers of kind.
func BuildDependencies(cfg *config.Config, kind config.ServiceKind, stores *Stores, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	clientOpts := clients.OptionsFromConfig(cfg)

	switch kind {
	case config.AnswerService:
		if stores.Mongo == nil {
			return nil, errors.New("answer-service requires mongo")
		}
		svc := appServices.NewAnswerService(appRepos.NewAnswerRepository(stores.Mongo))
		deps.Controllers.Answer = appControllers.NewAnswerController(svc)

	case config.CourseService:
		if stores.Postgres == nil {
			return nil, errors.New("course-service requires postgres")
		}
		svc := appServices.NewCourseService(
			appRepos.NewCourseRepository(stores.Postgres),
			clients.NewStudentClient(cfg.Clients.StudentServiceURL, clientOpts),
			clients.NewAnswerClient(cfg.Clients.AnswerServiceURL, clientOpts),
		)
		deps.Controllers.Course = appControllers.NewCourseController(svc)

	case config.ExamService:
		if stores.Gorm == nil {
			return nil, errors.New("exam-service requires a gorm session")
		}
		svc := appServices.NewExamService(appRepos.NewExamRepository(stores.Gorm))
		deps.Controllers.Exam = appControllers.NewExamController(svc)

	case config.StudentService:
		if stores.Postgres == nil {
			return nil, errors.New("student-service requires postgres")
		}
		deps.Relay = appServices.NewCascadeRelay(
			appRepos.NewOutboxRepository(stores.Postgres),
			clients.NewCourseClient(cfg.Clients.CourseServiceURL, clientOpts),
			helpers.ParseDuration(cfg.Cascade.RelayInterval, 30*time.Second),
			cfg.Cascade.BatchSize,
		)
		svc := appServices.NewStudentService(appRepos.NewStudentRepository(stores.Postgres), deps.Relay)
		deps.Controllers.Student = appControllers.NewStudentController(svc)

	default:
		return nil, fmt.Errorf("unknown service %q", kind)
	}

	lgr.Info().Str("service", string(kind)).Msg("Dependencies built")
	return deps, nil
}

// SetupRouter creates the gin engine with the shared middleware chain.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.EqualFold(cfg.Server.Mode, "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(),
	)

	appRoutes.SetupRouter(router, deps.Controllers)
	return router
}
