package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/lineserv/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample lineserv configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/lineserv/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  lineserv init

  # Initialize with custom path
  lineserv init --config /etc/lineserv/config.yaml

  # Force overwrite existing config
  lineserv init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if err := config.InitConfig(configPath, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file and point auth.users_file at your users file")
	fmt.Println("  2. Start the server with: lineserv start")
	fmt.Printf("  3. Or specify custom config: lineserv start --config %s\n", configPath)

	return nil
}
