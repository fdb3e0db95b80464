// Package cli wires the worklog commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sadopc/worklog/internal/config"
	"github.com/sadopc/worklog/internal/metrics"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

var (
	configPath  string
	dbPath      string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "worklog",
	Short: "worklog - track work time by tag",
	Long: `worklog records work as start/end intervals tagged with free-form labels,
summarizes them per month with an end-of-month estimate, and lets you rewrite
any single day from the terminal.`,
	RunE:          runTUI, // Default action is the interactive app
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the interval database (overrides storage.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// session holds everything a command needs once configuration is loaded.
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *store.Store
	svc     *tracker.Service
	metrics *metrics.Server
	logFile *os.File
}

// openSession loads configuration, applies flag overrides and opens the
// store. Logs go to logOut; a nil logOut means the configured log file.
func openSession(logOut io.Writer) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	s := &session{cfg: cfg}
	if logOut == nil {
		f, err := openLogFile(cfg.Logging.File)
		if err != nil {
			return nil, err
		}
		s.logFile = f
		logOut = f
	}
	s.logger = setupLogger(cfg.Logging, logOut)
	log.Logger = s.logger

	s.store, err = store.New(cfg.Storage.Path)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.logger.Debug().Str("path", cfg.Storage.Path).Msg("Database opened")

	s.svc, err = tracker.New(s.store, tracker.Options{
		CacheSize: cfg.Cache.Periods,
		Logger:    s.logger,
	})
	if err != nil {
		s.close()
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		s.metrics = metrics.NewServer(cfg.Metrics.Addr, s.logger)
		s.metrics.Start()
	}
	return s, nil
}

func (s *session) close() {
	if s.metrics != nil {
		if err := s.metrics.Stop(); err != nil {
			s.logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to close database")
		}
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stderr}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
