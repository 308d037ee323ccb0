package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/domain/subtitles"
	"github.com/forPelevin/hlshorts/internal/janitor"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/titles"
	"github.com/forPelevin/hlshorts/internal/types"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type fakeVideoTool struct {
	mu          sync.Mutex
	failSegment map[float64]bool
	failReframe bool
	failBurn    bool
	segments    []float64
	burns       []string
	// leftovers records clip files that still existed when a new segment
	// extraction started.
	leftovers []string
}

func writeOut(path string) error {
	return os.WriteFile(path, []byte("media"), 0o644)
}

func (f *fakeVideoTool) ExtractAudioMono16k(_ context.Context, _, outWav string) error {
	return writeOut(outWav)
}

func (f *fakeVideoTool) ExtractSegment(_ context.Context, _ string, start, _ float64, out string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(out), "clip*"))
	f.leftovers = append(f.leftovers, matches...)
	f.segments = append(f.segments, start)
	if f.failSegment[start] {
		return errors.New("ffmpeg extract segment: exit status 1\nInvalid data found")
	}
	return writeOut(out)
}

func (f *fakeVideoTool) Reframe(_ context.Context, _ string, _, _ int, out string) error {
	if f.failReframe {
		return errors.New("ffmpeg reframe: exit status 1")
	}
	return writeOut(out)
}

func (f *fakeVideoTool) BurnSubtitles(_ context.Context, _, track, _ string, out string) error {
	f.burns = append(f.burns, track)
	if f.failBurn {
		return errors.New("ffmpeg burn subtitles: no such filter")
	}
	return writeOut(out)
}

func (f *fakeVideoTool) ProbeDuration(context.Context, string) (float64, error) { return 600, nil }

type fakeASR struct {
	tr  types.Transcript
	err error
}

func (f fakeASR) Transcribe(context.Context, string, string) (types.Transcript, error) {
	return f.tr, f.err
}

type fakeSelector struct {
	cands  []types.ClipCandidate
	err    error
	limits []int
}

func (f *fakeSelector) Select(_ context.Context, _ types.Transcript, limit int) ([]types.ClipCandidate, error) {
	f.limits = append(f.limits, limit)
	return f.cands, f.err
}

type fakeTitles struct{ title string }

func (f fakeTitles) Generate(context.Context, []types.Word) string { return f.title }

type fakeSink struct {
	failIndex  map[int]bool
	deliveries []ports.Delivery
	missing    []string
}

func (f *fakeSink) Deliver(_ context.Context, d ports.Delivery) error {
	if _, err := os.Stat(d.VideoPath); err != nil {
		f.missing = append(f.missing, d.VideoPath)
	}
	if f.failIndex[d.Index] {
		return errors.New("chat rejected upload")
	}
	f.deliveries = append(f.deliveries, d)
	return nil
}

type recordingNotifier struct{ messages []string }

func (r *recordingNotifier) Notify(_ context.Context, _ string, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingNotifier) count(prefix string) int {
	n := 0
	for _, m := range r.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

// spreadTranscript places n half-second words evenly over total seconds.
func spreadTranscript(n int, total float64) types.Transcript {
	step := total / float64(n)
	tr := types.Transcript{Language: "en"}
	for i := 0; i < n; i++ {
		s := float64(i) * step
		tr.Words = append(tr.Words, types.Word{Text: fmt.Sprintf("w%d", i), Start: s, End: s + 0.5})
	}
	return tr
}

func scenarioCandidates() []types.ClipCandidate {
	return []types.ClipCandidate{
		{Index: 1, Start: 0, End: 15},
		{Index: 2, Start: 100, End: 130},
		{Index: 3, Start: 300, End: 360},
	}
}

type harness struct {
	video    *fakeVideoTool
	selector *fakeSelector
	sink     *fakeSink
	notes    *recordingNotifier
	root     *janitor.Root
	asr      fakeASR
	titles   ports.TitleGenerator
	settings Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root, err := janitor.Open(t.TempDir(), quietLogger())
	if err != nil {
		t.Fatalf("open janitor root: %v", err)
	}
	t.Cleanup(func() { _ = root.Close() })
	return &harness{
		video:    &fakeVideoTool{},
		selector: &fakeSelector{cands: scenarioCandidates()},
		sink:     &fakeSink{},
		notes:    &recordingNotifier{},
		root:     root,
		asr:      fakeASR{tr: spreadTranscript(45, 600)},
		titles:   fakeTitles{title: "🔥 Title"},
	}
}

func (h *harness) run(t *testing.T, clips int) (Report, *janitor.Workspace) {
	t.Helper()
	ws, err := h.root.NewWorkspace("job-" + strings.ReplaceAll(t.Name(), "/", "_"))
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	src := ws.Path("source.mp4")
	if err := os.WriteFile(src, []byte("source"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	uc := New(Deps{
		Video:    h.video,
		ASR:      h.asr,
		Selector: h.selector,
		Titles:   h.titles,
		Sink:     h.sink,
		Notifier: h.notes,
		Log:      quietLogger(),
	}, h.settings)
	rep := uc.Run(context.Background(), Job{
		ID:          "job-1",
		RequesterID: "42",
		Source:      types.VideoAsset{Path: src, Duration: 600, Title: "talk"},
		Clips:       clips,
		Workspace:   ws,
	})
	return rep, ws
}

func assertWorkspaceGone(t *testing.T, ws *janitor.Workspace) {
	t.Helper()
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(ws.Dir())
		t.Fatalf("expected workspace removed, stat err=%v entries=%v", err, entries)
	}
}

func TestRun_ScenarioDeliversThreeCaptionedClips(t *testing.T) {
	h := newHarness(t)
	rep, ws := h.run(t, 3)

	if rep.State != JobCompleted || rep.Err != nil {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(h.sink.deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(h.sink.deliveries))
	}
	for i, d := range h.sink.deliveries {
		if d.Index != i+1 || d.Total != 3 {
			t.Fatalf("delivery %d out of order: %+v", i, d)
		}
		if d.Width != 1080 || d.Height != 1920 {
			t.Fatalf("unexpected frame: %dx%d", d.Width, d.Height)
		}
		if !d.Captioned || !strings.HasSuffix(d.VideoPath, "_final.mp4") {
			t.Fatalf("expected captioned render, got %+v", d)
		}
		if want := fmt.Sprintf("%d/3\n\n🔥 Title", i+1); d.Caption != want {
			t.Fatalf("unexpected caption %q, want %q", d.Caption, want)
		}
	}
	if len(h.sink.missing) != 0 {
		t.Fatalf("sink received missing files: %v", h.sink.missing)
	}
	if len(h.video.burns) != 3 || !strings.HasSuffix(h.video.burns[0], ".srt") {
		t.Fatalf("expected three srt burns, got %v", h.video.burns)
	}
	if h.notes.count("⚙️ Processing short") != 3 || h.notes.count("✅ Done! All shorts sent!") != 1 {
		t.Fatalf("unexpected notifications: %q", h.notes.messages)
	}
	if h.notes.count("📝") != 1 || h.notes.count("🎯") != 1 || h.notes.count("🎬") != 1 {
		t.Fatalf("missing stage notifications: %q", h.notes.messages)
	}
	assertWorkspaceGone(t, ws)
}

func TestRun_FailureIsolation(t *testing.T) {
	h := newHarness(t)
	h.video.failSegment = map[float64]bool{100: true}
	rep, ws := h.run(t, 3)

	if rep.State != JobCompleted {
		t.Fatalf("expected job to complete, got %s", rep.State)
	}
	if len(h.sink.deliveries) != 2 || h.sink.deliveries[0].Index != 1 || h.sink.deliveries[1].Index != 3 {
		t.Fatalf("expected clips 1 and 3 delivered, got %+v", h.sink.deliveries)
	}
	if got := h.notes.count("⚠️ Error creating short"); got != 1 {
		t.Fatalf("expected exactly one failure notification, got %d: %q", got, h.notes.messages)
	}
	if !strings.Contains(strings.Join(h.notes.messages, "|"), "⚠️ Error creating short 2: segment extraction failed") {
		t.Fatalf("failure notification must name clip 2: %q", h.notes.messages)
	}
	for _, m := range h.notes.messages {
		if strings.Contains(m, "Invalid data found") {
			t.Fatalf("tool output leaked into notification: %q", m)
		}
	}
	failed := rep.Clips[1]
	if failed.State != ClipFailed || failed.FailedAt != ClipExtracting || !errors.Is(failed.Err, ErrSegmentExtractionFailed) {
		t.Fatalf("unexpected clip 2 result: %+v", failed)
	}
	if rep.Delivered() != 2 || rep.Failed() != 1 {
		t.Fatalf("unexpected counts: delivered=%d failed=%d", rep.Delivered(), rep.Failed())
	}
	assertWorkspaceGone(t, ws)
}

func TestRun_ClipFilesRemovedBeforeNextClip(t *testing.T) {
	h := newHarness(t)
	h.video.failSegment = map[float64]bool{0: true}
	_, ws := h.run(t, 3)

	if len(h.video.segments) != 3 {
		t.Fatalf("expected 3 extractions, got %v", h.video.segments)
	}
	if len(h.video.leftovers) != 0 {
		t.Fatalf("clip artifacts outlived their clip: %v", h.video.leftovers)
	}
	assertWorkspaceGone(t, ws)
}

func TestRun_ReframeFailureStopsClip(t *testing.T) {
	h := newHarness(t)
	h.video.failReframe = true
	rep, ws := h.run(t, 2)

	if len(h.sink.deliveries) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(h.sink.deliveries))
	}
	for _, c := range rep.Clips {
		if c.FailedAt != ClipReframing || !errors.Is(c.Err, ErrReframeFailed) {
			t.Fatalf("unexpected clip result: %+v", c)
		}
	}
	if rep.State != JobCompleted || h.notes.count("⚠️") != 2 {
		t.Fatalf("unexpected outcome: %s %q", rep.State, h.notes.messages)
	}
	if h.notes.count("✅ Done! 0/2 shorts sent.") != 1 {
		t.Fatalf("unexpected completion message: %q", h.notes.messages)
	}
	assertWorkspaceGone(t, ws)
}

func TestRun_BurnFailureDegrades(t *testing.T) {
	h := newHarness(t)
	h.video.failBurn = true
	rep, _ := h.run(t, 3)

	if len(h.sink.deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(h.sink.deliveries))
	}
	for _, d := range h.sink.deliveries {
		if d.Captioned || !strings.HasSuffix(d.VideoPath, "_reframed.mp4") {
			t.Fatalf("expected reframed fallback, got %+v", d)
		}
	}
	if h.notes.count("⚠️") != 0 {
		t.Fatalf("degraded burn must not be surfaced: %q", h.notes.messages)
	}
	if rep.Failed() != 0 {
		t.Fatalf("expected no failed clips, got %d", rep.Failed())
	}
}

func TestRun_NoWordsSkipsBurn(t *testing.T) {
	h := newHarness(t)
	h.asr = fakeASR{tr: types.Transcript{Words: []types.Word{{Text: "late", Start: 500, End: 501}}}}
	rep, _ := h.run(t, 2)

	if len(h.video.burns) != 0 {
		t.Fatalf("burn must be skipped without cues, got %v", h.video.burns)
	}
	if rep.Delivered() != 2 || rep.Clips[0].Captioned {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestRun_AssFormatEmbedsStyle(t *testing.T) {
	h := newHarness(t)
	h.settings = Settings{SubtitleFormat: "ass", Style: subtitles.DefaultStyle()}
	h.run(t, 1)
	if len(h.video.burns) != 1 || !strings.HasSuffix(h.video.burns[0], ".ass") {
		t.Fatalf("expected an ass track, got %v", h.video.burns)
	}
}

func TestRun_DeliveryFailureContinues(t *testing.T) {
	h := newHarness(t)
	h.sink.failIndex = map[int]bool{1: true}
	rep, ws := h.run(t, 3)

	if rep.Clips[0].FailedAt != ClipDelivering || !errors.Is(rep.Clips[0].Err, ErrDeliveryFailed) {
		t.Fatalf("unexpected clip 1 result: %+v", rep.Clips[0])
	}
	if len(h.sink.deliveries) != 2 {
		t.Fatalf("expected clips 2 and 3 delivered, got %d", len(h.sink.deliveries))
	}
	if h.notes.count("⚠️ Error creating short 1") != 1 {
		t.Fatalf("expected failure notification for clip 1: %q", h.notes.messages)
	}
	assertWorkspaceGone(t, ws)
}

func TestRun_EmptyTitleFallsBack(t *testing.T) {
	h := newHarness(t)
	h.titles = fakeTitles{title: "  "}
	rep, _ := h.run(t, 1)
	if rep.Clips[0].Title != titles.Fallback {
		t.Fatalf("expected fallback title, got %q", rep.Clips[0].Title)
	}
	if !strings.HasSuffix(h.sink.deliveries[0].Caption, titles.Fallback) {
		t.Fatalf("unexpected caption %q", h.sink.deliveries[0].Caption)
	}
}

func TestRun_JobAborts(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		wantErr error
		wantMsg string
	}{
		{
			name:    "transcription",
			setup:   func(h *harness) { h.asr = fakeASR{err: errors.New("whisper crashed")} },
			wantErr: ErrTranscriptionFailed,
			wantMsg: "❌ Processing error",
		},
		{
			name:    "no candidates",
			setup:   func(h *harness) { h.selector.cands = nil },
			wantErr: ErrNoClipsFound,
			wantMsg: "❌ Failed to find suitable moments",
		},
		{
			name:    "selector error",
			setup:   func(h *harness) { h.selector.err = errors.New("timeout") },
			wantErr: ErrNoClipsFound,
			wantMsg: "❌ Failed to find suitable moments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)
			rep, ws := h.run(t, 3)

			if rep.State != JobAborted || !errors.Is(rep.Err, tt.wantErr) {
				t.Fatalf("unexpected report: %+v", rep)
			}
			if len(h.video.segments) != 0 || len(rep.Clips) != 0 {
				t.Fatalf("no clip may be processed after abort")
			}
			if h.notes.count(tt.wantMsg) != 1 {
				t.Fatalf("expected abort message %q once, got %q", tt.wantMsg, h.notes.messages)
			}
			assertWorkspaceGone(t, ws)
		})
	}
}

func TestRun_SourceUnavailable(t *testing.T) {
	h := newHarness(t)
	ws, err := h.root.NewWorkspace("job-missing")
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	uc := New(Deps{Video: h.video, ASR: h.asr, Selector: h.selector, Sink: h.sink, Notifier: h.notes, Log: quietLogger()}, Settings{})
	rep := uc.Run(context.Background(), Job{
		ID:          "job-missing",
		RequesterID: "7",
		Source:      types.VideoAsset{Path: filepath.Join(ws.Dir(), "gone.mp4")},
		Clips:       3,
		Workspace:   ws,
	})
	if rep.State != JobAborted || !errors.Is(rep.Err, ErrSourceUnavailable) {
		t.Fatalf("unexpected report: %+v", rep)
	}
	assertWorkspaceGone(t, ws)
}

func TestRun_SelectionModes(t *testing.T) {
	many := []types.ClipCandidate{
		{Index: 3, Start: 300, End: 330},
		{Index: 1, Start: 0, End: 15},
		{Index: 2, Start: 100, End: 130},
		{Index: 4, Start: 50, End: 40},
	}

	t.Run("request all", func(t *testing.T) {
		h := newHarness(t)
		h.selector.cands = many
		rep, _ := h.run(t, 2)
		if len(h.selector.limits) != 1 || h.selector.limits[0] != 0 {
			t.Fatalf("expected selector asked for all, got %v", h.selector.limits)
		}
		if len(rep.Clips) != 2 || rep.Clips[0].Start != 0 || rep.Clips[1].Start != 100 {
			t.Fatalf("expected first two candidates by index, got %+v", rep.Clips)
		}
	})

	t.Run("request count", func(t *testing.T) {
		h := newHarness(t)
		h.selector.cands = many
		h.settings = Settings{RequestCount: true}
		h.run(t, 2)
		if len(h.selector.limits) != 1 || h.selector.limits[0] != 2 {
			t.Fatalf("expected selector asked for 2, got %v", h.selector.limits)
		}
	})
}

func TestCaption(t *testing.T) {
	if got := Caption(2, 5, "Wow"); got != "2/5\n\nWow" {
		t.Fatalf("unexpected caption %q", got)
	}
}
