// Package commands implements the launcher CLI.
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/team-ns/launcher/pkg/manifest"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string

	// exitCode carries the JVM status out of the play phase.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Launcher - game client updater and runner",
	Long: `Launcher authenticates against a launch server, reconciles the local game
directory against the served manifests, downloads missing content in
parallel and runs the game under an anti-tamper watch.

Use "launcher [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("launcher %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() (int, error) {
	if err := rootCmd.Execute(); err != nil {
		return 1, err
	}
	return exitCode, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "launcher.yaml", "config file path")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(startCmd)
}

// currentOsType maps the build platform onto the protocol platform set.
func currentOsType() (manifest.OsType, error) {
	switch runtime.GOOS {
	case "linux":
		switch runtime.GOARCH {
		case "amd64", "arm64":
			return manifest.LinuxX64, nil
		case "386":
			return manifest.LinuxX32, nil
		}
	case "darwin":
		return manifest.MacOsX64, nil
	case "windows":
		switch runtime.GOARCH {
		case "amd64", "arm64":
			return manifest.WindowsX64, nil
		case "386":
			return manifest.WindowsX32, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %s/%s", runtime.GOOS, runtime.GOARCH)
}
