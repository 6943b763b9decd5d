package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, interpolates, defaults and validates a config file. A directory
// path is resolved to the config.yaml inside it.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = absPath
	cfg.Fingerprint = Fingerprint(data)
	return cfg, nil
}

// Parse builds a validated Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyConfigDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyConfigDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}
	if cfg.State.LogRetention == 0 {
		cfg.State.LogRetention = defaults.State.LogRetention
	}

	if !cfg.API.Enabled && cfg.API.Listen == "" {
		cfg.API = defaults.API
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	if cfg.Queue.NextDialogTimeout == 0 {
		cfg.Queue.NextDialogTimeout = defaults.Queue.NextDialogTimeout
	}

	// nil keeps the default; an explicit empty list disables closing.
	if cfg.Session.CloseOnKeyOut == nil {
		cfg.Session.CloseOnKeyOut = defaults.Session.CloseOnKeyOut
	}

	if len(cfg.Dialogs) == 0 {
		cfg.Dialogs = defaults.Dialogs
	}
	for name, d := range cfg.Dialogs {
		if d.Kind == "" {
			d.Kind = KindDirect
			cfg.Dialogs[name] = d
		}
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.State.LogRetention < 0 {
		return fmt.Errorf("state.log_retention must not be negative")
	}

	if cfg.Queue.NextDialogTimeout < 0 {
		return fmt.Errorf("queue.next_dialog_timeout must not be negative")
	}

	if cfg.API.Enabled {
		if err := unresolved("api.auth.api_key", cfg.API.Auth.APIKey); err != nil {
			return err
		}
		if cfg.API.Auth.APIKey == "" && len(cfg.API.Auth.Tokens) == 0 {
			return fmt.Errorf("api.auth: api_key or tokens required when the API is enabled")
		}
		for i, tok := range cfg.API.Auth.Tokens {
			field := fmt.Sprintf("api.auth.tokens[%d].token", i)
			if tok.Token == "" {
				return fmt.Errorf("%s is required", field)
			}
			if err := unresolved(field, tok.Token); err != nil {
				return err
			}
			if len(tok.Scopes) == 0 {
				return fmt.Errorf("api.auth.tokens[%d].scopes must be non-empty", i)
			}
		}
	}

	for name, d := range cfg.Dialogs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("dialogs: empty dialog name")
		}
		if d.Kind != KindDirect && d.Kind != KindSequential {
			return fmt.Errorf("dialog %q: kind must be %s or %s (got %q)", name, KindDirect, KindSequential, d.Kind)
		}
		if d.Kind == KindSequential && d.Lazy {
			return fmt.Errorf("dialog %q: sequential dialogs cannot be lazy", name)
		}
		if d.Kind == KindDirect && d.ClearOnKeyOut != nil {
			return fmt.Errorf("dialog %q: clear_on_key_out only applies to sequential dialogs", name)
		}
		if d.Width < 0 || d.Height < 0 {
			return fmt.Errorf("dialog %q: width and height must not be negative", name)
		}
	}

	if err := validateWebhooks(cfg); err != nil {
		return err
	}

	for _, name := range cfg.Session.CloseOnKeyOut {
		if _, ok := cfg.Dialogs[name]; !ok && cfg.DialogsStrict {
			return fmt.Errorf("session.close_on_key_out: unknown dialog %q", name)
		}
	}

	return nil
}

func validateWebhooks(cfg *Config) error {
	if cfg.Webhooks == nil || len(cfg.Webhooks.Endpoints) == 0 {
		return nil
	}
	if cfg.Webhooks.Listen == "" {
		return fmt.Errorf("webhooks.listen is required when endpoints are configured")
	}

	seen := make(map[string]int)
	for i, ep := range cfg.Webhooks.Endpoints {
		field := fmt.Sprintf("webhooks.endpoints[%d]", i)
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("%s.path must start with / (got %q)", field, ep.Path)
		}
		normalized := strings.TrimSuffix(ep.Path, "/")
		if prev, dup := seen[normalized]; dup {
			return fmt.Errorf("%s.path %q conflicts with webhooks.endpoints[%d]", field, ep.Path, prev)
		}
		seen[normalized] = i

		if _, ok := cfg.Dialogs[ep.Dialog]; !ok {
			return fmt.Errorf("%s.dialog: unknown dialog %q", field, ep.Dialog)
		}
		if ep.Secret == "" {
			return fmt.Errorf("%s.secret is required", field)
		}
		if err := unresolved(field+".secret", ep.Secret); err != nil {
			return err
		}
	}
	return nil
}

func unresolved(field, value string) error {
	matches := envVarPattern.FindStringSubmatch(value)
	if len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}

// DialogNames returns the configured dialog names sorted.
func (c *Config) DialogNames() []string {
	names := make([]string, 0, len(c.Dialogs))
	for name := range c.Dialogs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
