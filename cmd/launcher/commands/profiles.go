package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/team-ns/launcher/internal/client"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/pkg/config"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the profiles the server offers for this platform",
	RunE:  runProfiles,
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadLauncher(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	osType, err := currentOsType()
	if err != nil {
		return err
	}

	ctx := context.Background()
	session, err := client.Connect(ctx, cfg.ServerURL, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Connected(ctx, protocol.ClientInfo{OsType: osType}); err != nil {
		return err
	}
	infos, err := session.ProfilesInfo(ctx)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		fmt.Println("No profiles available.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Version", "Description", "Optionals"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, info := range infos {
		var optionals []string
		for _, opt := range info.Optionals {
			optionals = append(optionals, opt.Name)
		}
		table.Append([]string{
			info.Name,
			info.Version,
			strings.TrimSpace(info.Description),
			strings.Join(optionals, ", "),
		})
	}
	table.Render()
	return nil
}
