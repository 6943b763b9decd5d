package config

import (
	"path/filepath"
	"testing"
)

func TestDiscoverConfigPathExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestFile(t, path, "service:\n  name: x\n")

	got, err := DiscoverConfigPath(dir)
	if err != nil {
		t.Fatalf("DiscoverConfigPath(dir) failed: %v", err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}

	got, err = DiscoverConfigPath(path)
	if err != nil || got != path {
		t.Errorf("DiscoverConfigPath(file) = %q, %v", got, err)
	}

	if _, err := DiscoverConfigPath(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestDiscoverConfigPathEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestFile(t, path, "service:\n  name: env\n")
	t.Setenv(EnvConfigDir, dir)
	t.Setenv("HOME", t.TempDir())

	got, err := DiscoverConfigPath("")
	if err != nil {
		t.Fatalf("DiscoverConfigPath() failed: %v", err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}
}

func TestDiscoverConfigPathHome(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ".config", "quickpanel", "config.yaml")
	writeTestFile(t, path, "service:\n  name: home\n")
	t.Setenv(EnvConfigDir, "")
	t.Setenv("HOME", home)

	got, err := DiscoverConfigPath("")
	if err != nil {
		t.Fatalf("DiscoverConfigPath() failed: %v", err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault() failed: %v", err)
	}
	if cfg.Service.Name != "quickpanel" || cfg.Path != "" {
		t.Errorf("expected defaults, got %+v", cfg.Service)
	}

	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing path must fail")
	}
}
