package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/config"
	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/logging"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formcraft",
	Short: "FormCraft form builder service",
	Long: `FormCraft stores user-authored forms, serves them to respondents,
collects responses and autosaves in-progress drafts.

Run "formcraft serve" to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("FORMCRAFT_CONFIG"), "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, tokenCmd, exportCmd, fieldTypesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects the configured document store.
func openStore(ctx context.Context) (docstore.Store, error) {
	s := cfg.Storage
	store, err := docstore.Open(ctx, docstore.Options{
		Driver:      s.Driver,
		SQLitePath:  s.SQLitePath,
		PostgresDSN: s.PostgresDSN,
		OxiDBHost:   s.OxiDBHost,
		OxiDBPort:   s.OxiDBPort,
		PoolSize:    s.PoolSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", s.Driver, err)
	}
	return store, nil
}
