package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"epubfit/internal/config"
	"epubfit/internal/logging"
	"epubfit/internal/profile"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "epubfit",
	Short:         "epubfit - fit EPUB books to e-reader devices",
	Long:          "epubfit rewrites, trims, downscales and grayscales EPUB books according to a device profile, then repackages them as valid EPUB containers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	table  *profile.Table
}

func loadApp() (*app, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}

	table := profile.Builtin()
	if cfg.Paths.ProfilesFile != "" {
		table, err = profile.Load(cfg.Paths.ProfilesFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded profile table", slog.String("path", cfg.Paths.ProfilesFile), slog.Int("profiles", len(table.List())))
	}

	return &app{cfg: cfg, logger: logger, table: table}, nil
}
