package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/domain/subtitles"
	"github.com/forPelevin/hlshorts/internal/janitor"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/types"
)

type Deps struct {
	Video    ports.VideoTool
	ASR      ports.ASR
	Selector ports.CandidateSelector
	Titles   ports.TitleGenerator
	Sink     ports.DeliverySink
	Notifier ports.Notifier
	Log      logrus.FieldLogger
}

type Settings struct {
	GroupSize int
	// SubtitleFormat is "srt" (burned with a force_style override) or
	// "ass" (style embedded in the track).
	SubtitleFormat string
	Style          subtitles.Style
	Width          int
	Height         int
	// RequestCount passes the clip count to the selector instead of asking
	// for every candidate and truncating afterwards.
	RequestCount bool
}

type Usecase struct {
	d Deps
	s Settings
}

func New(d Deps, s Settings) *Usecase {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if s.GroupSize <= 0 {
		s.GroupSize = subtitles.DefaultGroupSize
	}
	if s.SubtitleFormat == "" {
		s.SubtitleFormat = "srt"
	}
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = types.FrameWidth, types.FrameHeight
	}
	return &Usecase{d: d, s: s}
}

// Job is one admitted request. The workspace owns Source: it is deleted
// when the job ends.
type Job struct {
	ID          string
	RequesterID string
	Source      types.VideoAsset
	Clips       int
	Workspace   *janitor.Workspace
}

// Run drives the job to Completed or Aborted. Per-clip failures are
// recorded in the report and never abort the job.
func (u *Usecase) Run(ctx context.Context, job Job) Report {
	log := u.d.Log.WithFields(logrus.Fields{"job_id": job.ID, "requester_id": job.RequesterID})
	rep := Report{JobID: job.ID, RequesterID: job.RequesterID, State: JobAdmitted}

	defer func() {
		if f, ok := u.d.Sink.(ports.JobFinisher); ok {
			f.FinishJob(ctx, job.ID)
		}
		if err := job.Workspace.Close(); err != nil {
			log.WithError(err).Warn("workspace cleanup incomplete")
		}
		log.WithFields(logrus.Fields{
			"state":     rep.State,
			"delivered": rep.Delivered(),
			"failed":    rep.Failed(),
		}).Info("job finished")
	}()

	abort := func(marker error, cause error, message string) Report {
		rep.Err = fmt.Errorf("%w: %w", marker, cause)
		u.advance(log, &rep, JobAborted)
		log.WithError(rep.Err).Error("job aborted")
		u.notify(ctx, log, job.RequesterID, message)
		return rep
	}

	title := job.Source.Title
	if title == "" {
		title = "video"
	}
	u.notify(ctx, log, job.RequesterID, fmt.Sprintf("🎬 Creating up to %d shorts from %s...", job.Clips, title))

	if err := checkReadable(job.Source.Path); err != nil {
		return abort(ErrSourceUnavailable, err, "❌ Source video is unavailable")
	}

	u.advance(log, &rep, JobTranscribing)
	u.notify(ctx, log, job.RequesterID, "📝 Transcribing video... (this may take a few minutes)")
	tr, err := u.transcribe(ctx, job)
	if err != nil {
		return abort(ErrTranscriptionFailed, err, fmt.Sprintf("❌ Processing error: %s", firstLine(err)))
	}
	log.WithField("words", len(tr.Words)).Info("transcript ready")

	u.advance(log, &rep, JobFindingClips)
	u.notify(ctx, log, job.RequesterID, "🎯 Finding the best moments...")
	cands, err := u.findClips(ctx, tr, job.Clips)
	if err != nil {
		return abort(ErrNoClipsFound, err, "❌ Failed to find suitable moments for clips")
	}

	u.advance(log, &rep, JobProcessingClips)
	total := len(cands)
	u.notify(ctx, log, job.RequesterID, fmt.Sprintf("✂️ Creating %d shorts...", total))
	for _, c := range cands {
		u.notify(ctx, log, job.RequesterID, fmt.Sprintf("⚙️ Processing short %d/%d...", c.Index, total))
		res := u.processClip(ctx, log, job, tr, c, total)
		rep.Clips = append(rep.Clips, res)
		if res.State == ClipFailed {
			u.notify(ctx, log, job.RequesterID, fmt.Sprintf("⚠️ Error creating short %d: %s", res.Index, firstLine(res.Err)))
		}
	}

	u.advance(log, &rep, JobCompleted)
	if rep.Failed() == 0 {
		u.notify(ctx, log, job.RequesterID, "✅ Done! All shorts sent!")
	} else {
		u.notify(ctx, log, job.RequesterID, fmt.Sprintf("✅ Done! %d/%d shorts sent.", rep.Delivered(), total))
	}
	return rep
}

func (u *Usecase) transcribe(ctx context.Context, job Job) (types.Transcript, error) {
	wav := job.Workspace.Path("audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, job.Source.Path, wav); err != nil {
		return types.Transcript{}, err
	}
	tr, err := u.d.ASR.Transcribe(ctx, wav, job.Workspace.Dir())
	if err != nil {
		return types.Transcript{}, err
	}
	return tr, nil
}

// findClips asks the selector and keeps the first n candidates in index
// order, renumbered 1..n.
func (u *Usecase) findClips(ctx context.Context, tr types.Transcript, n int) ([]types.ClipCandidate, error) {
	limit := 0
	if u.s.RequestCount {
		limit = n
	}
	cands, err := u.d.Selector.Select(ctx, tr, limit)
	if err != nil {
		return nil, err
	}

	valid := make([]types.ClipCandidate, 0, len(cands))
	for _, c := range cands {
		if c.End > c.Start && c.Start >= 0 {
			valid = append(valid, c)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Index < valid[j].Index })
	if n > 0 && len(valid) > n {
		valid = valid[:n]
	}
	if len(valid) == 0 {
		return nil, errors.New("selector returned no usable candidates")
	}
	for i := range valid {
		valid[i].Index = i + 1
	}
	return valid, nil
}

func (u *Usecase) advance(log logrus.FieldLogger, rep *Report, next JobState) {
	if err := checkJobTransition(rep.State, next); err != nil {
		log.WithError(err).Error("job state machine violated")
	}
	rep.State = next
	log.WithField("state", next).Debug("job state")
}

// notify reports progress; a broken chat surface never affects the job.
func (u *Usecase) notify(ctx context.Context, log logrus.FieldLogger, requesterID, message string) {
	if u.d.Notifier == nil {
		return
	}
	if err := u.d.Notifier.Notify(ctx, requesterID, message); err != nil {
		log.WithError(err).Warn("notify failed")
	}
}

func checkReadable(path string) error {
	if path == "" {
		return errors.New("empty source path")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

// firstLine drops the tool output that subprocess errors carry.
func firstLine(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
