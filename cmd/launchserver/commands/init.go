package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/team-ns/launcher/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter configuration file with defaults.

The envelope key pair is generated on first start, not by init; run
"launchserver start" once and embed the printed public key in the launcher
configuration.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", cfgFile)
		}
	}
	if err := config.Save(config.DefaultServerConfig(), cfgFile); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", cfgFile)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Printf("  2. Start the server with: launchserver start --config %s\n", cfgFile)
	return nil
}
