package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Bot.FbPrefix != "fb" || cfg.Bot.TbPrefix != "tb" {
		t.Fatalf("unexpected prefixes: %+v", cfg.Bot)
	}
	if cfg.Bot.MaxReplyLength != 1900 {
		t.Fatalf("unexpected max reply length: %d", cfg.Bot.MaxReplyLength)
	}
	if cfg.Model.MaxTurns != 20 || cfg.Model.Temperature != 0.7 || cfg.Model.MaxOutputTokens != 2048 {
		t.Fatalf("unexpected model config: %+v", cfg.Model)
	}
	if len(cfg.Model.Candidates) != 3 || cfg.Model.Candidates[0] != "gemini-2.0-flash-lite" {
		t.Fatalf("unexpected candidates: %v", cfg.Model.Candidates)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got := ExpandPath("~/.trubot")
	if got != filepath.Join(home, ".trubot") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if ExpandPath("/abs/path") != "/abs/path" {
		t.Fatalf("absolute paths must pass through")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("ensure dir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestGeminiKeyEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // no config file
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Providers.Gemini.APIKey != "from-env" {
		t.Fatalf("unexpected api key: %q", cfg.Providers.Gemini.APIKey)
	}
	if !strings.HasSuffix(cfg.Paths.RulesFile, "rules.txt") {
		t.Fatalf("rules file not defaulted: %q", cfg.Paths.RulesFile)
	}
}
