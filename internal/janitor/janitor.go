// Package janitor owns every temporary file a job creates. A Root guards a
// work directory with a file lock; each job gets a Workspace below it, and
// each clip a Scope whose files are removed when the clip ends.
package janitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// ErrLocked means another process owns the work directory.
var ErrLocked = errors.New("work directory is locked by another process")

const (
	lockName = "hlshorts.lock"
	jobsDir  = "jobs"
)

type Root struct {
	dir  string
	lock *flock.Flock
	log  logrus.FieldLogger
}

// Open creates dir if needed and takes its lock.
func Open(dir string, log logrus.FieldLogger) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("janitor: empty work directory")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Join(dir, jobsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire work lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &Root{dir: dir, lock: lock, log: log}, nil
}

func (r *Root) Dir() string { return r.dir }

// Close releases the work directory lock.
func (r *Root) Close() error {
	return r.lock.Unlock()
}

type CleanupError struct {
	Path  string
	Error error
}

type SweepResult struct {
	Removed []string
	Errors  []CleanupError
}

// SweepStale removes job workspaces older than maxAge. With the root lock
// held no live job can own them; maxAge 0 removes every leftover.
func (r *Root) SweepStale(maxAge time.Duration) SweepResult {
	result := SweepResult{}
	base := filepath.Join(r.dir, jobsDir)
	entries, err := os.ReadDir(base)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Errors = append(result.Errors, CleanupError{Path: base, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		p := filepath.Join(base, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: p, Error: err})
			continue
		}
		if maxAge > 0 && !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: p, Error: err})
			r.log.WithError(err).WithField("path", p).Warn("failed to remove stale workspace")
			continue
		}
		result.Removed = append(result.Removed, p)
		r.log.WithField("path", p).Info("removed stale workspace")
	}
	return result
}

// NewWorkspace creates the per-job directory.
func (r *Root) NewWorkspace(jobID string) (*Workspace, error) {
	if strings.TrimSpace(jobID) == "" || strings.ContainsAny(jobID, `/\`) || jobID == "." || jobID == ".." {
		return nil, fmt.Errorf("janitor: invalid job id %q", jobID)
	}
	dir := filepath.Join(r.dir, jobsDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job workspace: %w", err)
	}
	return &Workspace{
		dir:     dir,
		log:     r.log.WithField("job_id", jobID),
		tracked: make(map[string]struct{}),
	}, nil
}

// Workspace tracks the files of one job.
type Workspace struct {
	dir string
	log logrus.FieldLogger

	mu      sync.Mutex
	tracked map[string]struct{}
	closed  bool
}

func (w *Workspace) Dir() string { return w.dir }

// Path returns a tracked path inside the workspace.
func (w *Workspace) Path(name string) string {
	p := filepath.Join(w.dir, filepath.Base(name))
	w.Track(p)
	return p
}

// Track registers a path created by someone else (a download, a staged
// source) for removal.
func (w *Workspace) Track(path string) {
	if path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked[path] = struct{}{}
}

// Clip opens a scope whose files are named by clip index.
func (w *Workspace) Clip(index int) *Scope {
	return &Scope{ws: w, index: index}
}

// Remaining lists tracked paths that still exist on disk.
func (w *Workspace) Remaining() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for p := range w.tracked {
		if _, err := os.Lstat(p); err == nil {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Close removes every tracked file and the workspace directory. Missing
// files are ignored; other failures are logged, never returned to the job.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	for p := range w.tracked {
		removeQuiet(w.log, p)
		delete(w.tracked, p)
	}
	if err := os.RemoveAll(w.dir); err != nil {
		w.log.WithError(err).WithField("path", w.dir).Warn("failed to remove job workspace")
		return err
	}
	return nil
}

func (w *Workspace) untrack(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		delete(w.tracked, p)
	}
}

// Scope holds the temporary files of one clip.
type Scope struct {
	ws    *Workspace
	index int
	paths []string
}

// Path returns a tracked, per-index path such as clip002_reframed.mp4.
func (s *Scope) Path(stage, ext string) string {
	name := fmt.Sprintf("clip%03d_%s%s", s.index, stage, ext)
	p := s.ws.Path(name)
	s.paths = append(s.paths, p)
	return p
}

// Cleanup removes the scope's files. Safe to call more than once.
func (s *Scope) Cleanup() {
	for _, p := range s.paths {
		removeQuiet(s.ws.log, p)
	}
	s.ws.untrack(s.paths)
	s.paths = nil
}

func removeQuiet(log logrus.FieldLogger, p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).WithField("path", p).Debug("cleanup failed")
	}
}
