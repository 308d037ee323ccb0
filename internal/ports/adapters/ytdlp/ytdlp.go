package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

const defaultFormat = "best[ext=mp4][height<=720]"

var ErrUnsupportedURL = errors.New("unsupported video url")

type Adapter struct {
	bin    string
	format string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath, format: defaultFormat}
}

// Download saves the video as <dir>/source.mp4 and reports its title and
// duration from the yt-dlp info JSON.
func (a *Adapter) Download(ctx context.Context, rawURL, dir string) (types.VideoAsset, error) {
	if !IsSupportedURL(rawURL) {
		return types.VideoAsset{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	out := filepath.Join(dir, "source.mp4")
	cmd := exec.CommandContext(ctx, a.bin,
		"-f", a.format,
		"-o", out,
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		"--print-json",
		"--no-simulate",
		rawURL,
	)
	b, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.VideoAsset{}, fmt.Errorf("yt-dlp download: %w\n%s", err, string(exitErr.Stderr))
		}
		return types.VideoAsset{}, fmt.Errorf("yt-dlp download: %w", err)
	}
	info, err := parseInfo(b)
	if err != nil {
		_ = os.Remove(out)
		return types.VideoAsset{}, err
	}
	return types.VideoAsset{Path: out, Duration: info.Duration, Title: info.Title}, nil
}

type info struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// parseInfo reads the last JSON line; yt-dlp may print progress before it.
func parseInfo(b []byte) (info, error) {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var in info
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			return info{}, fmt.Errorf("decode yt-dlp info: %w", err)
		}
		if strings.TrimSpace(in.Title) == "" {
			in.Title = "Video"
		}
		return in, nil
	}
	return info{}, errors.New("yt-dlp printed no info json")
}

// IsSupportedURL accepts youtube.com and youtu.be links.
func IsSupportedURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be"
}

// IsURL reports whether source looks like a remote link rather than a path.
func IsURL(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
