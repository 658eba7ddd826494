package cmd

import (
	"github.com/spf13/cobra"

	"github.com/planprobe/planprobe/internal/setup"
)

var (
	setupInstaller    string
	setupRequirements string
	setupSourceURL    string
)

// setupCmd represents the setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install the external analysis toolchain",
	Long: `Install the analysis toolchain the reporting notebooks depend on: first
the pinned requirements file, then one package straight from its repository
branch. The two installs run in strict sequence; if the first fails the second
never runs, and the installer's exit status becomes planprobe's exit status.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	defaults := setup.DefaultConfig()
	setupCmd.Flags().StringVar(&setupInstaller, "installer", defaults.Installer, "package installer binary")
	setupCmd.Flags().StringVar(&setupRequirements, "requirements", defaults.Requirements, "requirements file to install")
	setupCmd.Flags().StringVar(&setupSourceURL, "source-url", defaults.SourceURL, "VCS URL of the package installed from source")
}

func runSetup(cmd *cobra.Command, args []string) error {
	installer := setup.New(setup.Config{
		Installer:    setupInstaller,
		Requirements: setupRequirements,
		SourceURL:    setupSourceURL,
	}, newLogger())
	return installer.Run(cmd.Context())
}
