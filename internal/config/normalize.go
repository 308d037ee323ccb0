package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeSelection()
	c.normalizeSubtitles()
	if err := c.normalizeLLM(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	return nil
}

// applyEnv lets the environment override a few secrets and paths.
func (c *Config) applyEnv() {
	if v, ok := lookupEnv("OPENROUTER_API_KEY"); ok {
		c.LLM.APIKey = v
	}
	if v, ok := lookupEnv("OPENROUTER_MODEL"); ok {
		c.LLM.Model = v
	}
	if v, ok := lookupEnv("OPENROUTER_BASE_URL"); ok {
		c.LLM.BaseURL = v
	}
	if v, ok := lookupEnv("OPENROUTER_ALLOWED_HOSTS"); ok {
		c.LLM.AllowedHosts = splitList(v)
	}
	if v, ok := lookupEnv("HLSHORTS_WORK_DIR"); ok {
		c.Paths.WorkDir = v
	}
	if v, ok := lookupEnv("HLSHORTS_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if strings.TrimSpace(c.Paths.OutDir) == "" {
		c.Paths.OutDir = defaultOutDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutDir, err = expandPath(c.Paths.OutDir); err != nil {
		return fmt.Errorf("paths.out_dir: %w", err)
	}
	return nil
}

// normalizeTools expands only values that look like paths; bare names are
// resolved through PATH.
func (c *Config) normalizeTools() error {
	fields := []struct {
		name string
		ptr  *string
		def  string
	}{
		{"tools.ffmpeg", &c.Tools.FFmpeg, "ffmpeg"},
		{"tools.ffprobe", &c.Tools.FFprobe, "ffprobe"},
		{"tools.whisper_bin", &c.Tools.WhisperBin, defaultWhisperBin},
		{"tools.whisper_model", &c.Tools.WhisperModel, defaultWhisperModel},
		{"tools.ytdlp", &c.Tools.YTDLP, "yt-dlp"},
	}
	for _, f := range fields {
		v := strings.TrimSpace(*f.ptr)
		if v == "" {
			v = f.def
		}
		if strings.ContainsAny(v, `/\`) || strings.HasPrefix(v, "~") {
			expanded, err := expandPath(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			v = expanded
		}
		*f.ptr = v
	}
	return nil
}

func (c *Config) normalizeSelection() {
	c.Selection.Mode = strings.ToLower(strings.TrimSpace(c.Selection.Mode))
	if c.Selection.Mode == "" {
		c.Selection.Mode = defaultSelectionMode
	}
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Format = strings.ToLower(strings.TrimSpace(c.Subtitles.Format))
	if c.Subtitles.Format == "" {
		c.Subtitles.Format = defaultSubtitleFormat
	}
	if c.Subtitles.GroupSize == 0 {
		c.Subtitles.GroupSize = defaultGroupSize
	}
	c.Subtitles.FontName = strings.TrimSpace(c.Subtitles.FontName)
	if c.Subtitles.FontName == "" {
		c.Subtitles.FontName = defaultFontName
	}
	if c.Subtitles.FontSize == 0 {
		c.Subtitles.FontSize = defaultFontSize
	}
}

func (c *Config) normalizeLLM() error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.EndpointPath = strings.TrimSpace(c.LLM.EndpointPath)
	if c.LLM.EndpointPath == "" {
		c.LLM.EndpointPath = defaultLLMEndpointPath
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if strings.TrimSpace(c.LLM.PromptFile) != "" {
		p, err := expandPath(strings.TrimSpace(c.LLM.PromptFile))
		if err != nil {
			return fmt.Errorf("llm.prompt_file: %w", err)
		}
		c.LLM.PromptFile = p
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
