package config

import (
	"time"

	"github.com/team-ns/launcher/internal/auth"
)

// ServerConfig is the launch server configuration.
type ServerConfig struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Bind is the host:port the HTTP and session listener binds.
	Bind string `mapstructure:"bind" validate:"required,hostname_port" yaml:"bind"`

	// StaticDir is the root of the served content tree.
	StaticDir string `mapstructure:"static_dir" validate:"required" yaml:"static_dir"`

	// SecureDir holds the envelope key pair; created on first start.
	SecureDir string `mapstructure:"secure_dir" validate:"required" yaml:"secure_dir"`

	// FileServerBaseURL is the absolute prefix of manifest file URLs, e.g.
	// "https://launcher.example.com/files".
	FileServerBaseURL string `mapstructure:"file_server_base_url" validate:"required,url" yaml:"file_server_base_url"`

	// DefaultJre names the bundled runtime served to profiles that do not
	// name their own.
	DefaultJre string `mapstructure:"default_jre" yaml:"default_jre"`

	// Auth selects and parameterizes the credential broker.
	Auth auth.Config `mapstructure:"auth" yaml:"auth"`

	// Textures configures skin and cape URL templates for hasJoined
	// responses. "{username}" and "{uuid}" are substituted.
	Textures TexturesConfig `mapstructure:"textures" yaml:"textures"`

	// Metrics enables the Prometheus /metrics endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// TexturesConfig holds the player texture URL templates.
type TexturesConfig struct {
	SkinURL string `mapstructure:"skin_url" yaml:"skin_url"`
	CapeURL string `mapstructure:"cape_url" yaml:"cape_url"`
}

// MetricsConfig gates Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultServerConfig returns the configuration used when no file exists.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Bind:              "0.0.0.0:9274",
		StaticDir:         "static",
		SecureDir:         "secure",
		FileServerBaseURL: "http://127.0.0.1:9274/files",
		DefaultJre:        "jre8",
		Auth:              auth.Config{Kind: auth.KindAcceptAny},
		Textures: TexturesConfig{
			SkinURL: "http://127.0.0.1:9274/files/skins/{username}.png",
			CapeURL: "http://127.0.0.1:9274/files/capes/{username}.png",
		},
		ShutdownTimeout: 30 * time.Second,
	}
}

// applyServerDefaults fills unset fields in cfg from the defaults.
func applyServerDefaults(cfg *ServerConfig) {
	def := DefaultServerConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}
	if cfg.Bind == "" {
		cfg.Bind = def.Bind
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = def.StaticDir
	}
	if cfg.SecureDir == "" {
		cfg.SecureDir = def.SecureDir
	}
	if cfg.FileServerBaseURL == "" {
		cfg.FileServerBaseURL = def.FileServerBaseURL
	}
	if cfg.DefaultJre == "" {
		cfg.DefaultJre = def.DefaultJre
	}
	if cfg.Auth.Kind == "" {
		cfg.Auth.Kind = def.Auth.Kind
	}
	if cfg.Textures.SkinURL == "" {
		cfg.Textures.SkinURL = def.Textures.SkinURL
	}
	if cfg.Textures.CapeURL == "" {
		cfg.Textures.CapeURL = def.Textures.CapeURL
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
}

// LoadServer loads the server configuration from path.
func LoadServer(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := load(path, "LAUNCHSERVER", &cfg, func() { applyServerDefaults(&cfg) }); err != nil {
		return nil, err
	}
	return &cfg, nil
}
