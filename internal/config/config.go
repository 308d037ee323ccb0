package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds the working and output roots.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	OutDir  string `toml:"out_dir"`
}

// Limits bounds what a single request may ask for.
type Limits struct {
	MaxSourceSeconds float64 `toml:"max_source_seconds"`
	DefaultClips     int     `toml:"default_clips"`
	MaxClips         int     `toml:"max_clips"`
}

// Selection configures the candidate selector.
type Selection struct {
	// Mode is "request_all" (ask for every candidate, truncate afterwards)
	// or "request_count" (pass the clip count to the selector).
	Mode       string  `toml:"mode"`
	MinSeconds float64 `toml:"min_seconds"`
	MaxSeconds float64 `toml:"max_seconds"`
}

// Subtitles configures caption grouping and the burn-in look.
type Subtitles struct {
	GroupSize int    `toml:"group_size"`
	Format    string `toml:"format"`
	FontName  string `toml:"font_name"`
	FontSize  int    `toml:"font_size"`
	Outline   int    `toml:"outline"`
}

// Tools points at the external binaries.
type Tools struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	WhisperBin   string `toml:"whisper_bin"`
	WhisperModel string `toml:"whisper_model"`
	YTDLP        string `toml:"ytdlp"`
}

// LLM holds the chat completions endpoint used for titles.
type LLM struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	AllowedHosts   []string `toml:"allowed_hosts"`
	EndpointPath   string   `toml:"endpoint_path"`
	Model          string   `toml:"model"`
	Temperature    float64  `toml:"temperature"`
	MaxTokens      int      `toml:"max_tokens"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	PromptFile     string   `toml:"prompt_file"`
}

type Server struct {
	Bind string `toml:"bind"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for hlshorts.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Limits    Limits    `toml:"limits"`
	Selection Selection `toml:"selection"`
	Subtitles Subtitles `toml:"subtitles"`
	Tools     Tools     `toml:"tools"`
	LLM       LLM       `toml:"llm"`
	Server    Server    `toml:"server"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hlshorts/config.toml")
}

// Load locates, parses, normalizes and validates a configuration file. A
// missing file is not an error: defaults and env overrides apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("hlshorts.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// CreateSample writes the embedded sample config to path. It refuses to
// overwrite an existing file.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the work and output roots.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules to other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
