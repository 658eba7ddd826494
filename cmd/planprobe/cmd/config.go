package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect planprobe configuration",
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long:  `Print the effective configuration after merging flags, environment variables and the config file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

type resolvedConfig struct {
	ConfigFile string `yaml:"config_file,omitempty"`
	DSN        string `yaml:"dsn"`
	ResultsDB  string `yaml:"results_db"`
	LogLevel   string `yaml:"log_level"`
	LogJSON    bool   `yaml:"log_json"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := resultsDBPath()
	if err != nil {
		return err
	}

	cfg := resolvedConfig{
		ConfigFile: viper.ConfigFileUsed(),
		DSN:        dsn,
		ResultsDB:  path,
		LogLevel:   logLevel,
		LogJSON:    logJSON,
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, string(out))
	return nil
}
