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

server_url, game_dir and public_key must be filled in before the launcher
can start; the public key is printed by the launch server on startup.`,
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
	cfg := config.DefaultLauncherConfig()
	if err := config.Save(cfg, cfgFile); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", cfgFile)
	fmt.Println("\nFill in server_url, game_dir and public_key, then run: launcher start <profile>")
	return nil
}
