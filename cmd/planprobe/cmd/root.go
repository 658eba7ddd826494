package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/planprobe/planprobe/internal/db"
	"github.com/planprobe/planprobe/internal/store"
	"github.com/planprobe/planprobe/pkg/logging"
	"github.com/planprobe/planprobe/pkg/models"
)

var (
	cfgFile   string
	dsn       string
	resultsDB string
	logLevel  string
	logJSON   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "planprobe",
	Short: "PostgreSQL query plan benchmarking",
	Long: `planprobe runs instrumented EXPLAIN benchmarks against a PostgreSQL
database, records cardinality estimation quality per plan node, and compares
execution times across the pg_hint_plan join tree shapes.`,
	SilenceUsage: true,
}

// ExecuteContext adds all child commands to the root command and runs it with
// the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.planprobe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN of the benchmark target")
	rootCmd.PersistentFlags().StringVar(&resultsDB, "results-db", "", "path to the SQLite results database (default $HOME/.planprobe/results.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".planprobe"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PLANPROBE")
	viper.AutomaticEnv()
	viper.BindEnv("dsn", "PLANPROBE_DSN")
	viper.BindEnv("results_db", "PLANPROBE_RESULTS_DB")

	// Config file is optional; flags beat config, config beats defaults.
	_ = viper.ReadInConfig()

	if dsn == "" {
		dsn = viper.GetString("dsn")
	}
	if resultsDB == "" {
		resultsDB = viper.GetString("results_db")
	}
	if !rootCmd.PersistentFlags().Changed("log-level") && viper.GetString("log_level") != "" {
		logLevel = viper.GetString("log_level")
	}
}

func newLogger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(logLevel), logJSON)
}

// resultsDBPath resolves the SQLite path, creating the parent directory.
func resultsDBPath() (string, error) {
	path := resultsDB
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		path = filepath.Join(home, ".planprobe", "results.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}
	return path, nil
}

func openStore() (store.Store, error) {
	path, err := resultsDBPath()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(path)
}

func connectSession(ctx context.Context) (*db.Session, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no PostgreSQL DSN configured (use --dsn, PLANPROBE_DSN or the config file)")
	}
	return db.Connect(ctx, db.Config{DSN: dsn})
}

// resolveRun looks up a run by ID, or the latest run when id is empty.
func resolveRun(st store.Store, id string) (*models.Run, error) {
	if id == "" {
		return st.LatestRun()
	}
	return st.GetRun(id)
}
