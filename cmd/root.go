package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ideawall/internal/config"
	"ideawall/internal/generate"
	"ideawall/internal/store"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ideawall",
	Short: "Ideawall plan synthesis and wall management",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the ideawall database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to ideawall.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// LoadConfig resolves and loads configuration using priority:
// --config flag > IDEAWALL_CONFIG env > walk-up discovery > defaults.
func LoadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if path := config.Discover(); path != "" {
		return config.Load(path)
	}
	return config.Default(), nil
}

// DiscoverDB finds the database path using priority: env > flag > config.
func DiscoverDB(cfg *config.Config) (string, error) {
	if envPath := os.Getenv("IDEAWALL_DB"); envPath != "" {
		return envPath, nil
	}
	if dbPath != "" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return "", fmt.Errorf("database directory not found: %s", dir)
			}
		}
		return dbPath, nil
	}
	if cfg.DB != "" {
		return cfg.DB, nil
	}
	return "", fmt.Errorf("no database path (set IDEAWALL_DB, use --db, or set db in ideawall.yaml)")
}

// OpenStore loads configuration, discovers the database path, and opens
// the store. Callers own the returned store and must Close it.
func OpenStore() (*store.Store, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	path, err := DiscoverDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

// NewPlanner builds the plan generator from config. A missing API key yields
// a keyless backend whose planner degrades to heuristic derivation.
func NewPlanner(ctx context.Context, cfg *config.Config) (*generate.Planner, error) {
	backend, err := generate.NewGeminiBackend(ctx, cfg.Generator.APIKey(), cfg.Generator.Model)
	if err != nil {
		return nil, fmt.Errorf("init generator backend: %w", err)
	}
	return generate.NewPlanner(backend, cfg.Keywords, cfg.Generator.Timeout(), logger), nil
}
