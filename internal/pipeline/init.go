package pipeline

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/config"
	"github.com/forPelevin/hlshorts/internal/domain/highlights"
	"github.com/forPelevin/hlshorts/internal/domain/subtitles"
	"github.com/forPelevin/hlshorts/internal/janitor"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/openrouter"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/outbox"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/hlshorts/internal/titles"
	"github.com/forPelevin/hlshorts/internal/types"
	"github.com/forPelevin/hlshorts/internal/usecase"
)

// Init is the one-time startup step: it checks the external tools, locks and
// sweeps the work directory and wires the adapters. Any error is fatal to
// the process; nothing is retried per request.
func Init(cfg *config.Config, log logrus.FieldLogger, notifier ports.Notifier) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: nil config")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := checkTools(cfg, log); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	root, err := janitor.Open(cfg.Paths.WorkDir, log)
	if err != nil {
		return nil, err
	}
	if res := root.SweepStale(0); len(res.Removed) > 0 {
		log.WithField("removed", len(res.Removed)).Info("swept leftover workspaces")
	}

	tg, err := newTitleGenerator(cfg, log)
	if err != nil {
		_ = root.Close()
		return nil, err
	}

	d := Deps{
		Video:      ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe),
		ASR:        whispercpp.New(cfg.Tools.WhisperBin, cfg.Tools.WhisperModel),
		Selector:   highlights.NewSelector(cfg.Selection.MinSeconds, cfg.Selection.MaxSeconds),
		Titles:     tg,
		Sink:       outbox.New(cfg.Paths.OutDir),
		Notifier:   notifier,
		Downloader: ytdlp.New(cfg.Tools.YTDLP),
	}
	limits := Limits{
		MaxSourceSeconds: cfg.Limits.MaxSourceSeconds,
		DefaultClips:     cfg.Limits.DefaultClips,
		MaxClips:         cfg.Limits.MaxClips,
	}
	settings := usecase.Settings{
		GroupSize:      cfg.Subtitles.GroupSize,
		SubtitleFormat: cfg.Subtitles.Format,
		Style: subtitles.Style{
			FontName: cfg.Subtitles.FontName,
			FontSize: cfg.Subtitles.FontSize,
			Outline:  cfg.Subtitles.Outline,
		},
		Width:        types.FrameWidth,
		Height:       types.FrameHeight,
		RequestCount: cfg.Selection.Mode == config.SelectionRequestCount,
	}

	log.WithFields(logrus.Fields{
		"work_dir":       cfg.Paths.WorkDir,
		"out_dir":        cfg.Paths.OutDir,
		"selection_mode": cfg.Selection.Mode,
		"subtitles":      cfg.Subtitles.Format,
	}).Info("pipeline ready")
	return New(root, d, limits, settings, log), nil
}

func checkTools(cfg *config.Config, log logrus.FieldLogger) error {
	for _, bin := range []string{cfg.Tools.FFmpeg, cfg.Tools.FFprobe, cfg.Tools.WhisperBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("required tool %q not found: %w", bin, err)
		}
	}
	if _, err := os.Stat(cfg.Tools.WhisperModel); err != nil {
		return fmt.Errorf("whisper model: %w", err)
	}
	if _, err := exec.LookPath(cfg.Tools.YTDLP); err != nil {
		log.WithField("tool", cfg.Tools.YTDLP).Warn("yt-dlp not found; URL sources will fail")
	}
	return nil
}

// newTitleGenerator returns a generator that always falls back when no API
// key is configured.
func newTitleGenerator(cfg *config.Config, log logrus.FieldLogger) (*titles.Generator, error) {
	opts := titles.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	if cfg.LLM.PromptFile != "" {
		pd, err := titles.LoadPrompt(cfg.LLM.PromptFile)
		if err != nil {
			return nil, err
		}
		opts.Prompt = pd.Prompt
	}

	var llm ports.LLM
	if cfg.LLM.APIKey != "" {
		llm = openrouter.New(openrouter.Options{
			APIKey:       cfg.LLM.APIKey,
			Model:        cfg.LLM.Model,
			BaseURL:      cfg.LLM.BaseURL,
			EndpointPath: cfg.LLM.EndpointPath,
			Timeout:      time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
	} else {
		log.Warn("no LLM api key configured; every clip gets the fallback title")
	}
	return titles.New(llm, opts, log)
}

var (
	_ ports.VideoTool         = (*ffmpeg.Adapter)(nil)
	_ ports.ASR               = (*whispercpp.Adapter)(nil)
	_ ports.LLM               = (*openrouter.Adapter)(nil)
	_ ports.CandidateSelector = (*highlights.Selector)(nil)
	_ ports.TitleGenerator    = (*titles.Generator)(nil)
	_ ports.DeliverySink      = (*outbox.Sink)(nil)
	_ ports.JobFinisher       = (*outbox.Sink)(nil)
	_ ports.Downloader        = (*ytdlp.Adapter)(nil)
)
