package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal config gets defaults",
			yaml: `
service:
  name: kiosk
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.Name != "kiosk" {
					t.Errorf("service.name = %q", cfg.Service.Name)
				}
				if cfg.Service.LogLevel != "info" || cfg.Service.LogFormat != "json" {
					t.Errorf("log defaults not applied: %+v", cfg.Service)
				}
				if cfg.Queue.NextDialogTimeout != 300*time.Millisecond {
					t.Errorf("next_dialog_timeout = %v", cfg.Queue.NextDialogTimeout)
				}
				if len(cfg.Session.CloseOnKeyOut) != 1 || cfg.Session.CloseOnKeyOut[0] != "survey" {
					t.Errorf("close_on_key_out = %v", cfg.Session.CloseOnKeyOut)
				}
				if _, ok := cfg.Dialogs["errorDialog"]; !ok {
					t.Error("default dialogs not applied")
				}
			},
		},
		{
			name: "dialogs and queue",
			yaml: `
queue:
  next_dialog_timeout: 50ms
session:
  close_on_key_out: [survey, main]
dialogs:
  main: {}
  survey: {kind: direct, lazy: true}
  errorDialog:
    kind: sequential
    clear_on_key_out: false
    width: 400
    height: 250
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Queue.NextDialogTimeout != 50*time.Millisecond {
					t.Errorf("next_dialog_timeout = %v", cfg.Queue.NextDialogTimeout)
				}
				if cfg.Dialogs["main"].Kind != KindDirect {
					t.Errorf("kind default = %q", cfg.Dialogs["main"].Kind)
				}
				errDlg := cfg.Dialogs["errorDialog"]
				if errDlg.Kind != KindSequential || errDlg.ClearsOnKeyOut() {
					t.Errorf("errorDialog = %+v", errDlg)
				}
				if errDlg.Width != 400 || errDlg.Height != 250 {
					t.Errorf("size = %dx%d", errDlg.Width, errDlg.Height)
				}
				if !cfg.Dialogs["survey"].Lazy {
					t.Error("survey should be lazy")
				}
				if got := strings.Join(cfg.DialogNames(), ","); got != "errorDialog,main,survey" {
					t.Errorf("DialogNames() = %s", got)
				}
			},
		},
		{
			name: "empty close list disables closing",
			yaml: `
session:
  close_on_key_out: []
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Session.CloseOnKeyOut == nil || len(cfg.Session.CloseOnKeyOut) != 0 {
					t.Errorf("close_on_key_out = %#v", cfg.Session.CloseOnKeyOut)
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
state:
  path: ${QP_TEST_DB}
api:
  enabled: true
  listen: 127.0.0.1:9000
  auth:
    api_key: ${QP_TEST_KEY}
`,
			env: map[string]string{
				"QP_TEST_DB":  "/tmp/qp.db",
				"QP_TEST_KEY": "secret123",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.State.Path != "/tmp/qp.db" {
					t.Errorf("state.path = %q", cfg.State.Path)
				}
				if cfg.API.Auth.APIKey != "secret123" {
					t.Errorf("api_key = %q", cfg.API.Auth.APIKey)
				}
			},
		},
		{
			name: "unset env var in api key",
			yaml: `
api:
  enabled: true
  auth:
    api_key: ${QP_TEST_MISSING}
`,
			wantErr: "QP_TEST_MISSING",
		},
		{
			name: "api enabled without credentials",
			yaml: `
api:
  enabled: true
`,
			wantErr: "api_key or tokens required",
		},
		{
			name: "token without scopes",
			yaml: `
api:
  enabled: true
  auth:
    tokens:
      - token: abc
`,
			wantErr: "scopes must be non-empty",
		},
		{
			name: "bad log level",
			yaml: `
service:
  log_level: verbose
`,
			wantErr: "log_level",
		},
		{
			name: "bad dialog kind",
			yaml: `
dialogs:
  main: {kind: modal}
`,
			wantErr: "kind must be",
		},
		{
			name: "lazy sequential dialog",
			yaml: `
dialogs:
  errorDialog: {kind: sequential, lazy: true}
`,
			wantErr: "cannot be lazy",
		},
		{
			name: "clear_on_key_out on direct dialog",
			yaml: `
dialogs:
  main: {kind: direct, clear_on_key_out: true}
`,
			wantErr: "only applies to sequential",
		},
		{
			name: "strict close list",
			yaml: `
dialogs_strict: true
dialogs:
  main: {}
session:
  close_on_key_out: [survey]
`,
			wantErr: `unknown dialog "survey"`,
		},
		{
			name: "webhook endpoint",
			yaml: `
webhooks:
  listen: 127.0.0.1:8471
  endpoints:
    - path: /hooks/printer
      dialog: errorDialog
      secret: ${PRINTER_HOOK_SECRET}
      max_body_size: 8KB
`,
			env: map[string]string{"PRINTER_HOOK_SECRET": "s3cret"},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Webhooks == nil || len(cfg.Webhooks.Endpoints) != 1 {
					t.Fatalf("webhooks = %+v", cfg.Webhooks)
				}
				if ep := cfg.Webhooks.Endpoints[0]; ep.Secret != "s3cret" || ep.Dialog != "errorDialog" {
					t.Errorf("endpoint = %+v", ep)
				}
			},
		},
		{
			name: "webhook for unknown dialog",
			yaml: `
webhooks:
  listen: 127.0.0.1:8471
  endpoints:
    - {path: /hooks/x, dialog: settings, secret: s}
`,
			wantErr: `unknown dialog "settings"`,
		},
		{
			name: "webhook path conflict",
			yaml: `
webhooks:
  listen: 127.0.0.1:8471
  endpoints:
    - {path: /hooks/x, dialog: main, secret: s}
    - {path: /hooks/x/, dialog: tray, secret: s}
`,
			wantErr: "conflicts with webhooks.endpoints[0]",
		},
		{
			name: "webhook secret unresolved",
			yaml: `
webhooks:
  listen: 127.0.0.1:8471
  endpoints:
    - {path: /hooks/x, dialog: main, secret: "${QUICKPANEL_TEST_UNSET_SECRET}"}
`,
			wantErr: "QUICKPANEL_TEST_UNSET_SECRET",
		},
		{
			name: "webhook without listen",
			yaml: `
webhooks:
  endpoints:
    - {path: /hooks/x, dialog: main, secret: s}
`,
			wantErr: "webhooks.listen is required",
		},
		{
			name: "negative timeout",
			yaml: `
queue:
  next_dialog_timeout: -1s
`,
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			writeTestFile(t, path, tt.yaml)

			cfg, err := Load(path)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Load() error = nil, want %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if cfg.Path != path {
				t.Errorf("Path = %q, want %q", cfg.Path, path)
			}
			if len(cfg.Fingerprint) != 64 {
				t.Errorf("Fingerprint = %q", cfg.Fingerprint)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "config.yaml"), "service:\n  name: fromdir\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir) failed: %v", err)
	}
	if cfg.Service.Name != "fromdir" {
		t.Errorf("service.name = %q", cfg.Service.Name)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for directory without config.yaml")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, path, "dialogs: [unclosed\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse YAML") {
		t.Fatalf("Load() error = %v, want parse error", err)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	if err := validate(Defaults()); err != nil {
		t.Fatalf("Defaults() invalid: %v", err)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
