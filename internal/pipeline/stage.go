package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/janitor"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/hlshorts/internal/types"
	"github.com/forPelevin/hlshorts/internal/usecase"
)

// prepare creates the job workspace, brings the source into it and applies
// the duration guard. On error the workspace is already removed and the
// requester has been told why.
func (s *Service) prepare(ctx context.Context, jobID string, req Request) (job usecase.Job, err error) {
	log := s.log.WithFields(logrus.Fields{"job_id": jobID, "requester_id": req.RequesterID})

	ws, err := s.root.NewWorkspace(jobID)
	if err != nil {
		s.notify(ctx, req.RequesterID, "❌ Could not prepare a workspace")
		log.WithError(err).Error("workspace")
		return usecase.Job{}, err
	}
	defer func() {
		if err != nil {
			_ = ws.Close()
		}
	}()

	asset, err := s.stage(ctx, ws, req)
	if err != nil {
		err = fmt.Errorf("%w: %w", usecase.ErrSourceUnavailable, err)
		s.notify(ctx, req.RequesterID, "❌ Could not get the video: "+firstLine(err))
		log.WithError(err).Error("stage source")
		return usecase.Job{}, err
	}

	dur, err := s.d.Video.ProbeDuration(ctx, asset.Path)
	if err != nil {
		err = fmt.Errorf("%w: probe duration: %w", usecase.ErrSourceUnavailable, err)
		s.notify(ctx, req.RequesterID, "❌ Could not read the video")
		log.WithError(err).Error("probe source")
		return usecase.Job{}, err
	}
	asset.Duration = dur
	if dur > s.limits.MaxSourceSeconds {
		err = fmt.Errorf("%w: %.0fs exceeds %.0fs", ErrSourceTooLong, dur, s.limits.MaxSourceSeconds)
		s.notify(ctx, req.RequesterID, fmt.Sprintf("❌ Video too long! Maximum %d minutes", int(s.limits.MaxSourceSeconds/60)))
		log.WithError(err).Warn("source rejected")
		return usecase.Job{}, err
	}

	s.notify(ctx, req.RequesterID, fmt.Sprintf("✅ Source ready: %s\n⏱️ Duration: %d min", asset.Title, int(math.Ceil(dur/60))))
	return usecase.Job{
		ID:          jobID,
		RequesterID: req.RequesterID,
		Source:      asset,
		Clips:       req.Clips,
		Workspace:   ws,
	}, nil
}

// stage places the source inside the workspace so that deleting it never
// touches the caller's file.
func (s *Service) stage(ctx context.Context, ws *janitor.Workspace, req Request) (types.VideoAsset, error) {
	if ytdlp.IsURL(req.Source) {
		if s.d.Downloader == nil {
			return types.VideoAsset{}, errors.New("no downloader configured")
		}
		s.notify(ctx, req.RequesterID, "📥 Downloading video...")
		asset, err := s.d.Downloader.Download(ctx, req.Source, ws.Dir())
		ws.Track(asset.Path)
		if err != nil {
			return types.VideoAsset{}, err
		}
		return asset, nil
	}

	src, err := filepath.Abs(req.Source)
	if err != nil {
		return types.VideoAsset{}, err
	}
	info, err := os.Stat(src)
	if err != nil {
		return types.VideoAsset{}, err
	}
	if !info.Mode().IsRegular() {
		return types.VideoAsset{}, fmt.Errorf("%s is not a regular file", src)
	}
	dst := ws.Path("source" + strings.ToLower(filepath.Ext(src)))
	if err := linkOrCopy(src, dst); err != nil {
		return types.VideoAsset{}, fmt.Errorf("stage %s: %w", src, err)
	}
	title := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return types.VideoAsset{Path: dst, Title: title}, nil
}

func linkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
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

func firstLine(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
