package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/hlshorts/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL",
		"OPENROUTER_ALLOWED_HOSTS", "HLSHORTS_WORK_DIR", "HLSHORTS_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Limits.MaxSourceSeconds != 1800 || cfg.Limits.DefaultClips != 3 || cfg.Limits.MaxClips != 10 {
		t.Fatalf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.Selection.Mode != config.SelectionRequestAll {
		t.Fatalf("unexpected selection mode: %q", cfg.Selection.Mode)
	}
	if cfg.Subtitles.GroupSize != 5 {
		t.Fatalf("unexpected group size: %d", cfg.Subtitles.GroupSize)
	}
	if cfg.LLM.Temperature != 0.8 || cfg.LLM.MaxTokens != 50 {
		t.Fatalf("unexpected llm settings: %+v", cfg.LLM)
	}
	if !filepath.IsAbs(cfg.Paths.WorkDir) || !filepath.IsAbs(cfg.Paths.OutDir) {
		t.Fatalf("expected absolute paths, got %+v", cfg.Paths)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" {
		t.Fatalf("bare tool names must stay PATH-resolved, got %q", cfg.Tools.FFmpeg)
	}
	if !filepath.IsAbs(cfg.Tools.WhisperModel) {
		t.Fatalf("expected whisper model path to be absolute, got %q", cfg.Tools.WhisperModel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENROUTER_API_KEY", " secret ")
	t.Setenv("OPENROUTER_MODEL", "some/model")
	t.Setenv("OPENROUTER_BASE_URL", "https://llm.internal")
	t.Setenv("OPENROUTER_ALLOWED_HOSTS", "llm.internal, other.host")
	t.Setenv("HLSHORTS_WORK_DIR", "~/work")
	t.Setenv("HLSHORTS_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(home, "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "secret" || cfg.LLM.Model != "some/model" {
		t.Fatalf("unexpected llm: %+v", cfg.LLM)
	}
	if len(cfg.LLM.AllowedHosts) != 2 || cfg.LLM.AllowedHosts[1] != "other.host" {
		t.Fatalf("unexpected allowed hosts: %v", cfg.LLM.AllowedHosts)
	}
	if cfg.Paths.WorkDir != filepath.Join(home, "work") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestLoadParsesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "hlshorts.toml")
	body := `
[limits]
default_clips = 5

[selection]
mode = "request_count"

[subtitles]
format = "ass"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Limits.DefaultClips != 5 || cfg.Selection.Mode != config.SelectionRequestCount || cfg.Subtitles.Format != "ass" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Limits.MaxClips != 10 {
		t.Fatalf("defaults lost for unset keys: %+v", cfg.Limits)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[paths]\nstaging = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"bad mode", func(c *config.Config) { c.Selection.Mode = "best" }, "selection.mode"},
		{"min above max", func(c *config.Config) { c.Selection.MinSeconds = 90 }, "selection.min_seconds"},
		{"default clips above max", func(c *config.Config) { c.Limits.DefaultClips = 11 }, "limits.default_clips"},
		{"group size", func(c *config.Config) { c.Subtitles.GroupSize = 0 }, "subtitles.group_size"},
		{"format", func(c *config.Config) { c.Subtitles.Format = "vtt" }, "subtitles.format"},
		{"http base url", func(c *config.Config) { c.LLM.BaseURL = "http://openrouter.ai" }, "llm.base_url"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse overwrite")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample does not decode: %v", err)
	}
	if decoded.Limits.MaxClips != 10 || decoded.Subtitles.GroupSize != 5 {
		t.Fatalf("sample out of sync with defaults: %+v", decoded)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
}
