package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"tripscout/internal/agent"
	"tripscout/internal/config"
	"tripscout/internal/dates"
	"tripscout/internal/db"
	"tripscout/internal/domain"
	"tripscout/internal/llm"
	"tripscout/internal/scheduler"
	"tripscout/internal/store"
	"tripscout/internal/templates"
	"tripscout/internal/tooling"
	"tripscout/internal/weather"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("tripscout %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "tripscout",
		Short: "Trip-planning chat agent",
		Long:  "Tripscout is a trip-planning assistant that answers through LLM tool calls: date parsing, weather lookups, saved trips and packing checklists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.PersistentFlags().String("config", "", "config file path (default "+config.DefaultPath+")")

	chatCmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}
	root.AddCommand(chatCmd)

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the registered tool definitions as JSON",
		RunE:  runTools,
	}
	root.AddCommand(toolsCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check config and database connectivity",
		RunE:  runCheck,
	}
	checkCmd.Flags().Bool("fix", false, "write default config if missing")
	root.AddCommand(checkCmd)

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh cached forecasts for upcoming trips once",
		RunE:  runRefresh,
	}
	root.AddCommand(refreshCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the forecast refresh schedule and template watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, serveShutdownCh)
		},
	}
	root.AddCommand(serveCmd)

	return root
}

// configPath resolves the config file path: --config flag, then the
// TRIPSCOUT_CONFIG environment variable, then the default.
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	if path := os.Getenv("TRIPSCOUT_CONFIG"); path != "" {
		return path
	}
	return config.DefaultPath
}

// loadConfig loads the config file, falling back to defaults when the file
// does not exist. Other load errors (bad JSON, unreadable file) are returned.
func loadConfig(cmd *cobra.Command) (*domain.Config, error) {
	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func setupLogger(infra domain.InfraConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(infra.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(infra.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// app bundles the wired components a command needs. Close releases the
// database connection.
type app struct {
	cfg      *domain.Config
	logger   *slog.Logger
	conn     *sql.DB
	store    *store.SQLiteStore
	source   domain.WeatherSource
	library  *templates.Library
	registry *tooling.Registry
	executor *tooling.Executor
	agent    *agent.Agent
}

func (a *app) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// buildApp wires the full component graph from config: database, store,
// weather source, template library, tool registry, executor, provider, agent.
func buildApp(cfg *domain.Config) (*app, error) {
	logger := setupLogger(cfg.Infra)

	conn, err := db.Connect(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	st, err := store.NewSQLiteStore(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	library := templates.NewLibrary(cfg.Templates.Dir, logger)
	if err := library.Reload(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("templates: %w", err)
	}

	normalizer := dates.NewNormalizer()
	source := weather.NewMockSource()

	registry := tooling.NewRegistry()
	registry.MustRegister(tooling.NewDateTool(normalizer))
	registry.MustRegister(tooling.NewWeatherTool(source, st, normalizer, logger))
	registry.MustRegister(tooling.NewTripTool(st, normalizer))
	registry.MustRegister(tooling.NewChecklistTool(st, library))
	registry.MustRegister(tooling.NewChecklistItemTool(st))

	executor := tooling.NewExecutor(registry, tooling.WithLogger(logger))

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		conn.Close()
		return nil, err
	}
	ag := agent.NewAgent(provider, executor, registry,
		agent.WithLogger(logger),
		agent.WithMaxTurns(cfg.LLM.MaxTurns),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		conn:     conn,
		store:    st,
		source:   source,
		library:  library,
		registry: registry,
		executor: executor,
		agent:    ag,
	}, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	message := strings.Join(args, " ")
	text, _, err := a.agent.Run(cmd.Context(), message)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := json.MarshalIndent(a.registry.Definitions(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if fix, _ := cmd.Flags().GetBool("fix"); fix {
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("write default config: %w", err)
			}
			fmt.Fprintf(out, "config: wrote defaults to %s\n", path)
		} else {
			fmt.Fprintf(out, "config: %s missing (run with --fix to create it)\n", path)
			return exitCodeErr(1)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(out, "config: %v\n", err)
		return exitCodeErr(1)
	}
	fmt.Fprintf(out, "config: ok (provider=%s model=%s)\n", cfg.LLM.Provider, cfg.LLM.Model)

	conn, err := db.Connect(cfg.Database.URL)
	if err != nil {
		fmt.Fprintf(out, "database: %v\n", err)
		return exitCodeErr(1)
	}
	conn.Close()
	fmt.Fprintf(out, "database: ok (%s)\n", cfg.Database.URL)
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	refresher := scheduler.NewForecastRefresher(a.store, a.source, a.logger)
	return refresher.Run(cmd.Context())
}

// runServe runs the cron schedule and template watcher until shutdownCh is
// closed (tests) or an OS signal arrives.
func runServe(cmd *cobra.Command, args []string, shutdownCh <-chan struct{}) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	refresher := scheduler.NewForecastRefresher(a.store, a.source, a.logger)
	sched := scheduler.NewScheduler(scheduler.NewRobfigCronEngine(), scheduler.WithLogger(a.logger))
	err = sched.AddJob(
		scheduler.Job{ID: "forecast-refresh", Name: "forecast refresh", CronExpr: cfg.Forecast.RefreshCron},
		func(ctx context.Context, _ scheduler.Job) error {
			return refresher.Run(ctx)
		},
	)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	fmt.Fprintf(out, "  scheduler started (%s)\n", cfg.Forecast.RefreshCron)

	if cfg.Templates.Watch {
		watcher := templates.NewWatcher(a.library, a.logger)
		if err := watcher.Start(); err != nil {
			a.logger.Warn("template watcher failed to start", "error", err)
		} else {
			defer watcher.Stop()
			fmt.Fprintf(out, "  watching %s\n", cfg.Templates.Dir)
		}
	}
	fmt.Fprintln(out, "  ready.")

	if shutdownCh != nil {
		<-shutdownCh
		return nil
	}
	serveWaitForShutdown()
	return nil
}

func getVersion() string {
	if version != "" {
		return version
	}
	b, err := os.ReadFile("VERSION")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(b))
}

// version is set at build time via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=0.3.0" -o tripscout ./cmd/tripscout
var version string

// serveShutdownCh is set by tests to unblock runServe without signals.
// Production leaves it nil.
var serveShutdownCh <-chan struct{}

// serveWaitForShutdown is set by init in main_signal*.go so tests can inject a
// no-op to cover the nil-shutdownCh path.
var serveWaitForShutdown func()

// exitCodeErr carries an exit code for the process. When returned from a
// command, runApp exits with that code.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code.
func runApp(args []string) int {
	bm := newBuildMeta(version, "", "")
	if bm.Version == "" {
		bm.Version = getVersion()
	}
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	if err := root.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
