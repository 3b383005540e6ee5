// Package app provides the dependency injection container for the application.
package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/infra/config"
	"github.com/runoshun/review-bridge/internal/infra/executor"
	"github.com/runoshun/review-bridge/internal/infra/jsonstore"
	"github.com/runoshun/review-bridge/internal/infra/logging"
	"github.com/runoshun/review-bridge/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	WorkDir   string // Directory the command runs in (holds the project config)
	StateDir  string // Path to $XDG_STATE_HOME/review-bridge
	StorePath string // Path to history.json
}

// newConfig creates a new Config for dir.
func newConfig(dir string) Config {
	stateDir := domain.StateDir(stateHome())
	return Config{
		WorkDir:   dir,
		StateDir:  stateDir,
		StorePath: domain.HistoryStorePath(stateDir),
	}
}

// stateHome returns $XDG_STATE_HOME or its default.
func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), domain.AppName)
	}
	return filepath.Join(home, ".local", "state")
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Invoker       domain.WorkerInvoker
	History       domain.HistoryRepository
	Clock         domain.Clock
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	FileLogger    domain.Logger
	Logs          domain.InvocationLogs // nil leaves invocation log files alone
	NewID         domain.IDGenerator
	Getenv        func(string) string

	// Pointer fields
	Logger *slog.Logger
	mirror *logging.Logger
	closer io.Closer

	// Configuration
	Config Config
}

// New creates a new Container for the given working directory.
func New(dir string) (*Container, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(absDir)

	configLoader := config.NewLoader(cfg.WorkDir)
	// A broken config file is reported by the command that loads it.
	appConfig, err := configLoader.Load()
	if err != nil {
		appConfig = domain.NewDefaultConfig()
	}

	fileLogger := logging.New(cfg.StateDir, logging.ParseLevel(appConfig.Log.Level))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &Container{
		Invoker:       executor.NewClient(fileLogger, appConfig.Worker.WaitDelay.Std()),
		History:       jsonstore.New(cfg.StorePath),
		Clock:         domain.RealClock{},
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(cfg.WorkDir),
		FileLogger:    fileLogger,
		Logs:          fileLogger,
		NewID:         uuid.NewString,
		Getenv:        os.Getenv,
		Logger:        logger,
		mirror:        fileLogger,
		closer:        fileLogger,
		Config:        cfg,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(
	cfg Config,
	invoker domain.WorkerInvoker,
	history domain.HistoryRepository,
	configLoader domain.ConfigLoader,
	configManager domain.ConfigManager,
	clock domain.Clock,
	logger *slog.Logger,
) *Container {
	return &Container{
		Invoker:       invoker,
		History:       history,
		Clock:         clock,
		ConfigLoader:  configLoader,
		ConfigManager: configManager,
		FileLogger:    domain.NopLogger{},
		NewID:         uuid.NewString,
		Getenv:        os.Getenv,
		Logger:        logger,
		Config:        cfg,
	}
}

// Close releases resources held by the container.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// SetLogMirror copies every diagnostic log entry to w.
// It has no effect on containers built with NewWithDeps.
func (c *Container) SetLogMirror(w io.Writer) {
	if c.mirror != nil {
		c.mirror.SetMirror(w)
	}
}

// UseCase factory methods

// RunReviewUseCase returns a new RunReview use case.
func (c *Container) RunReviewUseCase() *usecase.RunReview {
	return usecase.NewRunReview(c.Invoker, c.History, c.ConfigLoader, c.Logs, c.FileLogger, c.Clock, c.NewID, c.Getenv)
}

// InvokeWorkerUseCase returns a new InvokeWorker use case.
func (c *Container) InvokeWorkerUseCase() *usecase.InvokeWorker {
	return usecase.NewInvokeWorker(c.Invoker, c.History, c.ConfigLoader, c.Logs, c.FileLogger, c.Clock, c.NewID)
}

// ListHistoryUseCase returns a new ListHistory use case.
func (c *Container) ListHistoryUseCase() *usecase.ListHistory {
	return usecase.NewListHistory(c.History)
}

// ShowInvocationUseCase returns a new ShowInvocation use case.
func (c *Container) ShowInvocationUseCase() *usecase.ShowInvocation {
	return usecase.NewShowInvocation(c.History, c.Config.StateDir)
}

// PruneHistoryUseCase returns a new PruneHistory use case.
func (c *Container) PruneHistoryUseCase() *usecase.PruneHistory {
	return usecase.NewPruneHistory(c.History, c.Logs, c.FileLogger)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
