package outbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/types"
)

// Sink delivers clips into a directory tree:
// <root>/<requester>/<timestamp>-<suffix>/clips/NNN.mp4 plus manifest.json.
type Sink struct {
	root string
	now  func() time.Time

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	dir      string
	manifest types.Manifest
}

func New(root string) *Sink {
	if strings.TrimSpace(root) == "" {
		root = "out"
	}
	return &Sink{root: root, now: time.Now, runs: make(map[string]*run)}
}

func (s *Sink) Deliver(ctx context.Context, d ports.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.VideoPath == "" {
		return errors.New("outbox: empty video path")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.runFor(d)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("%03d", d.Index)
	rel := filepath.ToSlash(filepath.Join("clips", id+".mp4"))
	if err := copyFile(d.VideoPath, filepath.Join(r.dir, rel)); err != nil {
		return fmt.Errorf("outbox: copy clip %s: %w", id, err)
	}

	r.manifest.Clips = append(r.manifest.Clips, types.ManifestClip{
		ID:        id,
		Index:     d.Index,
		Total:     d.Total,
		StartSec:  d.Start,
		EndSec:    d.End,
		File:      rel,
		Title:     d.Title,
		Caption:   d.Caption,
		Width:     d.Width,
		Height:    d.Height,
		Captioned: d.Captioned,
	})
	return writeManifest(r.dir, r.manifest)
}

// FinishJob forgets the run directory of a finished job.
func (s *Sink) FinishJob(_ context.Context, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, jobID)
}

// RunDir returns the directory of a job still in progress.
func (s *Sink) RunDir(jobID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[jobID]
	if !ok {
		return "", false
	}
	return r.dir, true
}

func (s *Sink) runFor(d ports.Delivery) (*run, error) {
	if r, ok := s.runs[d.JobID]; ok {
		return r, nil
	}
	dir := buildRunOutDir(s.root, d.RequesterID, d.JobID, s.now())
	if err := os.MkdirAll(filepath.Join(dir, "clips"), 0o755); err != nil {
		return nil, err
	}
	r := &run{dir: dir, manifest: types.Manifest{RequesterID: d.RequesterID, JobID: d.JobID}}
	s.runs[d.JobID] = r
	return r, nil
}

func writeManifest(dir string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := filepath.Join(dir, ".manifest.json.tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, "manifest.json"))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func buildRunOutDir(outRoot, requesterID, jobID string, now time.Time) string {
	name := normalizePathSegment(requesterID)
	if name == "" {
		name = "anonymous"
	}
	ts := now.UTC().Format("20060102-150405Z")
	suffix := hash(jobID + "|" + requesterID)[:6]
	return filepath.Join(outRoot, name, fmt.Sprintf("%s-%s", ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
