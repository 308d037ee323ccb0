package config

const (
	defaultWorkDir          = ".cache/hlshorts"
	defaultOutDir           = "out"
	defaultMaxSourceSeconds = 1800
	defaultClips            = 3
	defaultMaxClips         = 10
	defaultSelectionMode    = SelectionRequestAll
	defaultMinSeconds       = 15
	defaultMaxSeconds       = 60
	defaultGroupSize        = 5
	defaultSubtitleFormat   = "srt"
	defaultFontName         = "Arial"
	defaultFontSize         = 24
	defaultOutline          = 2
	defaultWhisperBin       = ".cache/bin/whisper.cpp"
	defaultWhisperModel     = ".cache/models/ggml-base.bin"
	defaultLLMBaseURL       = "https://openrouter.ai"
	defaultLLMEndpointPath  = "/api/v1/chat/completions"
	defaultLLMModel         = "meta-llama/llama-3.3-70b-instruct"
	defaultLLMTemperature   = 0.8
	defaultLLMMaxTokens     = 50
	defaultLLMTimeout       = 30
	defaultServerBind       = "127.0.0.1:8787"
	defaultLogLevel         = "info"
	defaultLogFormat        = "auto"
)

const (
	SelectionRequestAll   = "request_all"
	SelectionRequestCount = "request_count"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			OutDir:  defaultOutDir,
		},
		Limits: Limits{
			MaxSourceSeconds: defaultMaxSourceSeconds,
			DefaultClips:     defaultClips,
			MaxClips:         defaultMaxClips,
		},
		Selection: Selection{
			Mode:       defaultSelectionMode,
			MinSeconds: defaultMinSeconds,
			MaxSeconds: defaultMaxSeconds,
		},
		Subtitles: Subtitles{
			GroupSize: defaultGroupSize,
			Format:    defaultSubtitleFormat,
			FontName:  defaultFontName,
			FontSize:  defaultFontSize,
			Outline:   defaultOutline,
		},
		Tools: Tools{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			WhisperBin:   defaultWhisperBin,
			WhisperModel: defaultWhisperModel,
			YTDLP:        "yt-dlp",
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			EndpointPath:   defaultLLMEndpointPath,
			Model:          defaultLLMModel,
			Temperature:    defaultLLMTemperature,
			MaxTokens:      defaultLLMMaxTokens,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
