package config

import "github.com/team-ns/launcher/internal/bytesize"

// LauncherConfig is the launcher-side configuration. The public key is
// embedded at build time by the packaging pipeline; everything else can be
// overridden by the user.
type LauncherConfig struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ProjectName is the display name shown by the UI shell.
	ProjectName string `mapstructure:"project_name" yaml:"project_name"`

	// ServerURL is the websocket endpoint of the launch server, e.g.
	// "ws://127.0.0.1:9274/api".
	ServerURL string `mapstructure:"server_url" validate:"required" yaml:"server_url"`

	// GameDir is the root of the managed game directory.
	GameDir string `mapstructure:"game_dir" validate:"required" yaml:"game_dir"`

	// Ram is the default JVM heap size when settings carry none.
	Ram bytesize.ByteSize `mapstructure:"ram" yaml:"ram"`

	// PublicKey is the server's base64 envelope public key.
	PublicKey string `mapstructure:"public_key" validate:"required" yaml:"public_key"`

	// Window is the UI shell geometry, passed through to the embedder.
	Window WindowConfig `mapstructure:"window" yaml:"window"`
}

// WindowConfig is the embedded UI window geometry.
type WindowConfig struct {
	Width  int `mapstructure:"width" validate:"omitempty,gt=0" yaml:"width"`
	Height int `mapstructure:"height" validate:"omitempty,gt=0" yaml:"height"`
}

// DefaultLauncherConfig returns the launcher defaults. ServerURL, GameDir
// and PublicKey have no sensible defaults and must come from the file.
func DefaultLauncherConfig() *LauncherConfig {
	return &LauncherConfig{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		ProjectName: "Launcher",
		Ram:         2 * bytesize.GiB,
		Window:      WindowConfig{Width: 900, Height: 600},
	}
}

func applyLauncherDefaults(cfg *LauncherConfig) {
	def := DefaultLauncherConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = def.ProjectName
	}
	if cfg.Ram == 0 {
		cfg.Ram = def.Ram
	}
	if cfg.Window.Width == 0 {
		cfg.Window.Width = def.Window.Width
	}
	if cfg.Window.Height == 0 {
		cfg.Window.Height = def.Window.Height
	}
}

// LoadLauncher loads the launcher configuration from path.
func LoadLauncher(path string) (*LauncherConfig, error) {
	var cfg LauncherConfig
	if err := load(path, "LAUNCHER", &cfg, func() { applyLauncherDefaults(&cfg) }); err != nil {
		return nil, err
	}
	return &cfg, nil
}
