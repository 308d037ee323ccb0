package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error {
	return a.run(ctx, "extract audio",
		"-y",
		"-i", inMP4,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
}

func (a *Adapter) ExtractSegment(ctx context.Context, inMP4 string, start, duration float64, outMP4 string) error {
	return a.run(ctx, "extract segment", segmentArgs(inMP4, start, duration, outMP4)...)
}

func (a *Adapter) Reframe(ctx context.Context, inMP4 string, width, height int, outMP4 string) error {
	return a.run(ctx, "reframe",
		"-y",
		"-i", inMP4,
		"-vf", reframeFilter(width, height),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-c:a", "copy",
		outMP4,
	)
}

func (a *Adapter) BurnSubtitles(ctx context.Context, inMP4, track, forceStyle, outMP4 string) error {
	return a.run(ctx, "burn subtitles",
		"-y",
		"-i", inMP4,
		"-vf", subtitlesFilter(track, forceStyle),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-c:a", "copy",
		outMP4,
	)
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMP4 string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func (a *Adapter) run(ctx context.Context, op string, args ...string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", op, err, tail(string(b), 2000))
	}
	return nil
}

// segmentArgs seeks on the input side so stream copy starts at the nearest
// keyframe instead of decoding from the top of the file.
func segmentArgs(inMP4 string, start, duration float64, outMP4 string) []string {
	return []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-i", inMP4,
		"-t", fmtSeconds(duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outMP4,
	}
}

func reframeFilter(width, height int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", width, height, width, height)
}

func subtitlesFilter(track, forceStyle string) string {
	f := "subtitles=" + escapeFilterPath(track)
	if forceStyle != "" {
		f += ":force_style='" + forceStyle + "'"
	}
	return f
}

func fmtSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}

// tail keeps the end of noisy ffmpeg output, where the actual error is.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
