package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatsync/internal/app"
	chatclient "chatsync/internal/client"
	"chatsync/internal/config"
	"chatsync/internal/logging"
	"chatsync/internal/store"
)

const persistOnExitTimeout = 3 * time.Second

type UICommand struct {
	stderr     io.Writer
	loadConfig func() (config.Config, error)
	runUI      func(cfg config.Config) error
}

func NewUICommand(stderr io.Writer, loadConfig func() (config.Config, error), runUI func(cfg config.Config) error) *UICommand {
	return &UICommand{
		stderr:     stderr,
		loadConfig: loadConfig,
		runUI:      runUI,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	backend := fs.String("backend", "", "override backend base url")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if *backend != "" {
		cfg.Backend.BaseURL = *backend
	}
	return c.runUI(cfg)
}

// uiLogger writes to a rotating file; the terminal belongs to the UI.
func uiLogger(cfg config.Config) (logging.Logger, io.Closer, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	file, err := logging.NewRotatingFile(logging.FileOptions{
		Path:       path,
		MaxSizeMB:  cfg.LogMaxSizeMB(),
		MaxBackups: cfg.LogMaxBackups(),
	})
	if err != nil {
		return nil, nil, err
	}
	return logging.New(file, logging.ParseLevel(cfg.LogLevel())), file, nil
}

func openRepository(cfg config.Config) (store.Repository, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	filesDir, err := cfg.StorageFilesDir()
	if err != nil {
		return nil, err
	}
	return store.OpenRepository(store.RepositoryPaths{DBPath: dbPath, FilesDir: filesDir}, cfg.StorageBackend())
}

func runUIProgram(cfg config.Config) error {
	logger, logFile, err := uiLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	tokens, err := tokenSource(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if fileTokens, ok := tokens.(*chatclient.FileTokenSource); ok {
		go func() {
			if err := fileTokens.Watch(ctx, logger); err != nil {
				logger.Warn("token watch stopped", logging.Err(err))
			}
		}()
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	model := app.NewModel(app.ModelOptions{
		API:                 newBackendClient(cfg, tokens, logger),
		Repository:          repo,
		Logger:              logger,
		RequestTimeout:      cfg.RequestTimeout(),
		SendTimeout:         cfg.SendTimeout(),
		PendingTimeout:      cfg.SendTimeout() + cfg.PendingGrace(),
		RefreshAfterConfirm: cfg.RefreshAfterConfirm(),
	})
	logger.Info("ui starting",
		logging.F("backend", cfg.BackendURL()),
		logging.F("storage", repo.Backend()),
	)
	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	persistCtx, persistCancel := context.WithTimeout(context.Background(), persistOnExitTimeout)
	defer persistCancel()
	if err := model.Persist(persistCtx); err != nil {
		logger.Warn("persist on exit failed", logging.Err(err))
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
