package container

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apisource "gocausal/adapters/api"
	"gocausal/adapters/excel"
	"gocausal/adapters/postgres"
	"gocausal/app"
	"gocausal/internal"
	"gocausal/internal/api"
	"gocausal/internal/config"
	"gocausal/internal/migration"
	"gocausal/internal/testkit"
	"gocausal/ports"
	"gocausal/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	Runs      ports.RunRepository
	Reader    ports.MatrixReader
	SSEHub    *api.SSEHub
	Discovery *app.DiscoveryService
}

// New creates a container. Call InitWithDatabase or InitInMemory before use.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg, Logger: internal.OrDefault(logger)}, nil
}

// Open connects to Postgres when DATABASE_URL is set and keeps runs in memory otherwise
func (c *Container) Open(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.Info("DATABASE_URL not set, run records are kept in memory")
		return c.InitInMemory()
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase migrates the schema and stores runs in Postgres
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if err := migration.NewRunner(c.Logger).Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.Runs = postgres.NewRunRepository(db)
	c.initServices()
	c.Logger.Info("container initialized with database connection")
	return nil
}

// InitInMemory stores runs in process memory
func (c *Container) InitInMemory() error {
	c.Runs = testkit.NewInMemoryRunRepository()
	c.initServices()
	return nil
}

func (c *Container) initServices() {
	source := apisource.DefaultAPIDataSource()
	source.DataPath = c.Config.Data.APIDataPath
	source.PaginationType = c.Config.Data.APIPagination
	source.PageSize = c.Config.Data.APIPageSize
	if c.Config.Data.APIToken != "" {
		source.AuthMethod = "bearer"
		source.AuthToken = c.Config.Data.APIToken
	}

	c.Reader = &sourceReader{
		files: excel.NewMatrixAdapter(excel.ExcelConfig{Sheet: c.Config.Data.Sheet, Enabled: true}, c.Logger),
		http:  apisource.NewMatrixReader(source, c.Logger),
	}
	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Discovery = app.NewDiscoveryService(c.Reader, c.Runs, c.Logger).WithEvents(c.SSEHub)
}

// Handler builds the HTML app with the JSON API mounted at /api
func (c *Container) Handler() (http.Handler, error) {
	if c.Discovery == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	if c.Config.Server.GinMode != "" {
		gin.SetMode(c.Config.Server.GinMode)
	}
	handler := api.NewRunHandler(c.Discovery, c.Config.Discovery.Params())
	router := api.NewRouter(handler, c.SSEHub, c.Logger)

	return ui.NewApp(c.Discovery, router, c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// sourceReader sends http(s) sources to the JSON reader and everything else to the file reader
type sourceReader struct {
	files ports.MatrixReader
	http  ports.MatrixReader
}

func (r *sourceReader) ReadMatrix(ctx context.Context, source string) (*ports.MatrixLoad, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return r.http.ReadMatrix(ctx, source)
	}
	return r.files.ReadMatrix(ctx, source)
}
