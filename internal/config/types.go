package config

import "time"

// Config represents the complete quickpanel configuration.
type Config struct {
	Service       ServiceConfig           `yaml:"service"`
	State         StateConfig             `yaml:"state"`
	API           APIConfig               `yaml:"api,omitempty"`
	Queue         QueueConfig             `yaml:"queue"`
	Session       SessionConfig           `yaml:"session"`
	DialogsStrict bool                    `yaml:"dialogs_strict"`
	Dialogs       map[string]DialogConfig `yaml:"dialogs"`
	Webhooks      *WebhooksConfig         `yaml:"webhooks,omitempty"`

	// Path and Fingerprint describe the file the config was loaded from.
	Path        string `yaml:"-"`
	Fingerprint string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StateConfig defines where the dialog audit log lives.
type StateConfig struct {
	Path         string        `yaml:"path"`
	LogRetention time.Duration `yaml:"log_retention"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is a single bearer token with full access.
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// QueueConfig tunes sequential dialog queues.
type QueueConfig struct {
	NextDialogTimeout time.Duration `yaml:"next_dialog_timeout"`
}

// SessionConfig defines the reaction to the user keying out.
type SessionConfig struct {
	CloseOnKeyOut []string `yaml:"close_on_key_out"`
}

// WebhooksConfig declares signed inbound endpoints that show dialogs.
type WebhooksConfig struct {
	Listen    string            `yaml:"listen"`
	Endpoints []WebhookEndpoint `yaml:"endpoints"`
}

// WebhookEndpoint maps a URL path to the dialog it shows.
type WebhookEndpoint struct {
	Path            string `yaml:"path"`
	Dialog          string `yaml:"dialog"`
	Secret          string `yaml:"secret"`
	SignatureHeader string `yaml:"signature_header,omitempty"`
	MaxBodySize     string `yaml:"max_body_size,omitempty"`
}

// Dialog kinds accepted in DialogConfig.Kind.
const (
	KindDirect     = "direct"
	KindSequential = "sequential"
)

// DialogConfig declares one named dialog.
type DialogConfig struct {
	Kind          string `yaml:"kind"`
	ClearOnKeyOut *bool  `yaml:"clear_on_key_out,omitempty"`
	Lazy          bool   `yaml:"lazy,omitempty"`
	Width         int    `yaml:"width,omitempty"`
	Height        int    `yaml:"height,omitempty"`
}

// ClearsOnKeyOut reports whether a sequential dialog drops pending requests
// on key-out. Unset means yes.
func (d DialogConfig) ClearsOnKeyOut() bool {
	return d.ClearOnKeyOut == nil || *d.ClearOnKeyOut
}

// Defaults returns a Config with the application's standard dialog set.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "quickpanel",
			LogLevel:  "info",
			LogFormat: "json",
		},
		State: StateConfig{
			Path:         "./data/quickpanel.db",
			LogRetention: 7 * 24 * time.Hour,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8470",
		},
		Queue: QueueConfig{
			NextDialogTimeout: 300 * time.Millisecond,
		},
		Session: SessionConfig{
			CloseOnKeyOut: []string{"survey"},
		},
		Dialogs: DefaultDialogs(),
	}
}

// DefaultDialogs is the dialog set used when the config file declares none.
func DefaultDialogs() map[string]DialogConfig {
	return map[string]DialogConfig{
		"main":          {Kind: KindDirect, Width: 1024, Height: 720},
		"survey":        {Kind: KindDirect, Lazy: true, Width: 600, Height: 480},
		"tray":          {Kind: KindDirect, Width: 320, Height: 400},
		"errorDialog":   {Kind: KindSequential, Width: 400, Height: 250},
		"confirmDialog": {Kind: KindSequential, Width: 400, Height: 200},
	}
}
