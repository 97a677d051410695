package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/team-ns/launcher/internal/client"
	"github.com/team-ns/launcher/internal/client/downloader"
	"github.com/team-ns/launcher/internal/client/game"
	"github.com/team-ns/launcher/internal/client/joinbroker"
	"github.com/team-ns/launcher/internal/client/settings"
	"github.com/team-ns/launcher/internal/client/validator"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/internal/secure"
	"github.com/team-ns/launcher/pkg/config"
)

var (
	startLogin     string
	startSave      bool
	startOptionals []string
)

var startCmd = &cobra.Command{
	Use:   "start <profile>",
	Short: "Update and run a profile",
	Long: `Authenticate, reconcile the game directory against the server manifests
and run the game under an anti-tamper watch.

Examples:
  # Run a profile, prompting for credentials
  launcher start vanilla

  # Remember credentials for the next run
  launcher start vanilla --login alice --save

  # Select optionals explicitly (replaces the saved selection)
  launcher start vanilla --optional shaders --optional maps`,
	Args: cobra.ExactArgs(1),
	RunE: runLauncherStart,
}

func init() {
	startCmd.Flags().StringVar(&startLogin, "login", "", "login name (prompted when empty and not saved)")
	startCmd.Flags().BoolVar(&startSave, "save", false, "remember credentials in settings")
	startCmd.Flags().StringArrayVar(&startOptionals, "optional", nil,
		"optional to enable (repeatable; replaces the saved selection)")
}

func runLauncherStart(cmd *cobra.Command, args []string) error {
	profileName := args[0]

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

	publicKey, err := secure.ParsePublicKey(cfg.PublicKey)
	if err != nil {
		return fmt.Errorf("parse embedded public key: %w", err)
	}

	sets := settings.Load(cfg.GameDir)
	if cmd.Flags().Changed("optional") {
		sets.SetSelectedOptionals(profileName, startOptionals)
	}
	selected := sets.SelectedOptionals(profileName)

	login, sealed, err := credentials(sets, publicKey)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		logger.Info("interrupt received, shutting down")
		cancel()
	}()

	session, err := client.Connect(ctx, cfg.ServerURL, func(resp protocol.Response) {
		logger.Info("server notification", logger.KeyMessage, resp.Type)
	})
	if err != nil {
		return err
	}
	defer session.Close()

	auth, err := session.Auth(ctx, login, sealed)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	logger.Info("authenticated", logger.Username(login), logger.KeyUUID, auth.UUID)

	if startSave {
		sets.SaveData = true
		sets.LastName = login
		sets.SavedPassword = sealed
	}
	if err := sets.Save(cfg.GameDir); err != nil {
		logger.Warn("settings not saved", logger.Err(err))
	}

	if err := session.Connected(ctx, protocol.ClientInfo{OsType: osType}); err != nil {
		return err
	}

	prof, err := session.Profile(ctx, profileName, selected)
	if err != nil {
		return err
	}
	resources, err := session.ProfileResources(ctx, profileName, osType, selected)
	if err != nil {
		return err
	}

	merged := client.MergeResources(resources, prof.AssetsDir)
	v := validator.New(cfg.GameDir, merged, prof.UpdateVerify, prof.UpdateExclusion)

	var downloaded atomic.Int64
	d := downloader.New(downloader.WithProgress(func(n int) {
		downloaded.Add(int64(n))
	}))
	if err := v.Reconcile(ctx, d); err != nil {
		return err
	}
	if total := downloaded.Load(); total > 0 {
		logger.Info("update complete", logger.KeyBytes, total)
	}

	ram := sets.Ram
	if ram == 0 {
		ram = cfg.Ram
	}

	broker := joinbroker.New()
	code, err := game.Play(ctx, game.Options{
		GameDir:     cfg.GameDir,
		Profile:     prof,
		Ram:         ram,
		Username:    login,
		UUID:        auth.UUID,
		AccessToken: auth.AccessToken,
	}, v, broker, session)
	if err != nil {
		return err
	}
	exitCode = code
	return nil
}

// credentials resolves the login and the sealed password, preferring saved
// values and prompting otherwise.
func credentials(sets *settings.Settings, publicKey *[32]byte) (login, sealed string, err error) {
	login = startLogin
	if login == "" && sets.SaveData {
		login = sets.LastName
	}
	if login == "" {
		prompt := promptui.Prompt{Label: "Login"}
		login, err = prompt.Run()
		if err != nil {
			return "", "", err
		}
	}

	if sets.SaveData && sets.SavedPassword != "" && login == sets.LastName {
		return login, sets.SavedPassword, nil
	}

	prompt := promptui.Prompt{Label: "Password", Mask: '*'}
	password, err := prompt.Run()
	if err != nil {
		return "", "", err
	}
	sealed, err = secure.EncryptPassword(publicKey, password)
	if err != nil {
		return "", "", err
	}
	return login, sealed, nil
}
