package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/domain/subtitles"
	"github.com/forPelevin/hlshorts/internal/janitor"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/titles"
	"github.com/forPelevin/hlshorts/internal/types"
)

// clipRun carries one candidate through the per-clip state machine. Each
// step returns the next state; a step error moves the clip to ClipFailed.
type clipRun struct {
	u     *Usecase
	job   Job
	cand  types.ClipCandidate
	total int
	words []types.Word
	scope *janitor.Scope
	log   logrus.FieldLogger

	state ClipState

	segment  string
	reframed string
	track    string
	final    string
	style    string
	cues     []types.CaptionCue
	res      ClipResult
}

type clipStep func(ctx context.Context) (ClipState, error)

func (u *Usecase) processClip(ctx context.Context, log logrus.FieldLogger, job Job, tr types.Transcript, c types.ClipCandidate, total int) ClipResult {
	r := &clipRun{
		u:     u,
		job:   job,
		cand:  c,
		total: total,
		words: tr.Within(c.Start, c.End),
		scope: job.Workspace.Clip(c.Index),
		log:   log.WithField("clip", c.Index),
		state: ClipPending,
		res:   ClipResult{Index: c.Index, State: ClipPending, Start: c.Start, End: c.End},
	}
	defer r.scope.Cleanup()

	steps := map[ClipState]clipStep{
		ClipPending:            func(context.Context) (ClipState, error) { return ClipExtracting, nil },
		ClipExtracting:         r.extract,
		ClipReframing:          r.reframe,
		ClipCompilingSubtitles: r.compileSubtitles,
		ClipBurning:            r.burn,
		ClipGeneratingTitle:    r.generateTitle,
		ClipDelivering:         r.deliver,
	}

	for !r.state.Terminal() {
		step, ok := steps[r.state]
		if !ok {
			r.fail(fmt.Errorf("no step for clip state %s", r.state))
			break
		}
		next, err := step(ctx)
		if err != nil {
			r.fail(err)
			continue
		}
		if err := checkClipTransition(r.state, next); err != nil {
			r.fail(err)
			continue
		}
		r.log.WithField("state", next).Debug("clip state")
		r.state = next
	}

	r.res.State = r.state
	return r.res
}

func (r *clipRun) fail(err error) {
	r.res.FailedAt = r.state
	r.res.Err = err
	r.state = ClipFailed
	r.log.WithError(err).WithField("failed_at", r.res.FailedAt).Error("clip failed")
}

func (r *clipRun) extract(ctx context.Context) (ClipState, error) {
	r.segment = r.scope.Path("segment", ".mp4")
	err := r.u.d.Video.ExtractSegment(ctx, r.job.Source.Path, r.cand.Start, r.cand.Duration(), r.segment)
	if err == nil {
		err = requireFile(r.segment)
	}
	if err != nil {
		return "", fmt.Errorf("%w: clip %d: %w", ErrSegmentExtractionFailed, r.cand.Index, err)
	}
	return ClipReframing, nil
}

func (r *clipRun) reframe(ctx context.Context) (ClipState, error) {
	r.reframed = r.scope.Path("reframed", ".mp4")
	err := r.u.d.Video.Reframe(ctx, r.segment, r.u.s.Width, r.u.s.Height, r.reframed)
	if err == nil {
		err = requireFile(r.reframed)
	}
	if err != nil {
		return "", fmt.Errorf("%w: clip %d: %w", ErrReframeFailed, r.cand.Index, err)
	}
	return ClipCompilingSubtitles, nil
}

// compileSubtitles never fails the clip: without cues the burn is skipped.
func (r *clipRun) compileSubtitles(context.Context) (ClipState, error) {
	cues, err := subtitles.Compile(r.words, r.cand.Start, r.u.s.GroupSize)
	if err != nil {
		if errors.Is(err, subtitles.ErrNoCaptionableWords) {
			r.log.Warn("no captionable words; clip goes out without captions")
		} else {
			r.log.WithError(err).Warn("subtitle compile failed; clip goes out without captions")
		}
		return ClipBurning, nil
	}

	var data []byte
	if r.u.s.SubtitleFormat == "ass" {
		r.track = r.scope.Path("subs", ".ass")
		data = []byte(subtitles.RenderASS(cues, r.u.s.Style))
	} else {
		r.track = r.scope.Path("subs", ".srt")
		data = subtitles.MarshalSRT(cues)
		r.style = r.u.s.Style.ForceStyle()
	}
	if err := os.WriteFile(r.track, data, 0o644); err != nil {
		r.log.WithError(err).Warn("write subtitle track failed; clip goes out without captions")
		return ClipBurning, nil
	}
	r.cues = cues
	return ClipBurning, nil
}

// burn falls back to the reframed video when there is nothing to burn or
// the tool fails.
func (r *clipRun) burn(ctx context.Context) (ClipState, error) {
	r.final = r.reframed
	if len(r.cues) == 0 {
		return ClipGeneratingTitle, nil
	}
	out := r.scope.Path("final", ".mp4")
	err := r.u.d.Video.BurnSubtitles(ctx, r.reframed, r.track, r.style, out)
	if err == nil {
		err = requireFile(out)
	}
	if err != nil {
		err = fmt.Errorf("%w: clip %d: %w", ErrSubtitleBurnFailed, r.cand.Index, err)
		r.log.WithError(err).Warn("using video without captions")
		return ClipGeneratingTitle, nil
	}
	r.final = out
	r.res.Captioned = true
	return ClipGeneratingTitle, nil
}

func (r *clipRun) generateTitle(ctx context.Context) (ClipState, error) {
	title := ""
	if r.u.d.Titles != nil {
		title = strings.TrimSpace(r.u.d.Titles.Generate(ctx, r.words))
	}
	if title == "" {
		err := fmt.Errorf("%w: clip %d: empty title", ErrTitleGenerationFailed, r.cand.Index)
		r.log.WithError(err).Warn("using fallback title")
		title = titles.Fallback
	}
	r.res.Title = title
	return ClipDelivering, nil
}

func (r *clipRun) deliver(ctx context.Context) (ClipState, error) {
	err := r.u.d.Sink.Deliver(ctx, ports.Delivery{
		RequesterID: r.job.RequesterID,
		JobID:       r.job.ID,
		VideoPath:   r.final,
		Caption:     Caption(r.cand.Index, r.total, r.res.Title),
		Title:       r.res.Title,
		Width:       r.u.s.Width,
		Height:      r.u.s.Height,
		Index:       r.cand.Index,
		Total:       r.total,
		Start:       r.cand.Start,
		End:         r.cand.End,
		Captioned:   r.res.Captioned,
	})
	if err != nil {
		return "", fmt.Errorf("%w: clip %d: %w", ErrDeliveryFailed, r.cand.Index, err)
	}
	r.log.WithField("title", r.res.Title).Info("clip delivered")
	return ClipDelivered, nil
}

// Caption is the message text sent along with a clip.
func Caption(index, total int, title string) string {
	return fmt.Sprintf("%d/%d\n\n%s", index, total, title)
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("expected output %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("expected output %s is a directory", path)
	}
	return nil
}
