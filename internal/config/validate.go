package config

import (
	"errors"
	"fmt"

	"github.com/forPelevin/hlshorts/internal/ports/adapters/openrouter"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxSourceSeconds <= 0 {
		return errors.New("limits.max_source_seconds must be positive")
	}
	if c.Limits.MaxClips < 1 {
		return errors.New("limits.max_clips must be at least 1")
	}
	if c.Limits.DefaultClips < 1 || c.Limits.DefaultClips > c.Limits.MaxClips {
		return fmt.Errorf("limits.default_clips must be between 1 and %d", c.Limits.MaxClips)
	}
	return nil
}

func (c *Config) validateSelection() error {
	switch c.Selection.Mode {
	case SelectionRequestAll, SelectionRequestCount:
	default:
		return fmt.Errorf("selection.mode must be %q or %q, got %q", SelectionRequestAll, SelectionRequestCount, c.Selection.Mode)
	}
	if c.Selection.MinSeconds <= 0 {
		return errors.New("selection.min_seconds must be positive")
	}
	if c.Selection.MinSeconds > c.Selection.MaxSeconds {
		return errors.New("selection.min_seconds must be <= selection.max_seconds")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.GroupSize < 1 {
		return errors.New("subtitles.group_size must be at least 1")
	}
	switch c.Subtitles.Format {
	case "srt", "ass":
	default:
		return fmt.Errorf("subtitles.format must be srt or ass, got %q", c.Subtitles.Format)
	}
	if c.Subtitles.FontSize < 1 {
		return errors.New("subtitles.font_size must be positive")
	}
	if c.Subtitles.Outline < 0 {
		return errors.New("subtitles.outline must not be negative")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		return errors.New("llm.max_tokens must be positive")
	}
	if c.LLM.TimeoutSeconds < 1 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if err := openrouter.ValidateBaseURL(c.LLM.BaseURL, c.LLM.AllowedHosts); err != nil {
		return fmt.Errorf("llm.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format)
	}
	return nil
}
