package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/gate"
	"github.com/forPelevin/hlshorts/internal/janitor"
	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/hlshorts/internal/usecase"
)

var (
	ErrSourceTooLong  = errors.New("source video is too long")
	ErrInvalidRequest = errors.New("invalid request")
)

// Request asks for shorts from a local file or a YouTube URL.
type Request struct {
	RequesterID string
	Source      string
	Clips       int
}

type Limits struct {
	MaxSourceSeconds float64
	DefaultClips     int
	MaxClips         int
}

type Deps struct {
	Video      ports.VideoTool
	ASR        ports.ASR
	Selector   ports.CandidateSelector
	Titles     ports.TitleGenerator
	Sink       ports.DeliverySink
	Notifier   ports.Notifier
	Downloader ports.Downloader
}

// Service is the process-scoped owner of the requester gate, the work root
// and the orchestrator. Build it once with Init (or New in tests) and Close
// it at shutdown.
type Service struct {
	root   *janitor.Root
	gate   *gate.Gate
	uc     *usecase.Usecase
	d      Deps
	limits Limits
	log    logrus.FieldLogger
	newID  func() string

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func New(root *janitor.Root, d Deps, limits Limits, settings usecase.Settings, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if limits.MaxClips < 1 {
		limits.MaxClips = 10
	}
	if limits.DefaultClips < 1 || limits.DefaultClips > limits.MaxClips {
		limits.DefaultClips = min(3, limits.MaxClips)
	}
	if limits.MaxSourceSeconds <= 0 {
		limits.MaxSourceSeconds = 1800
	}
	uc := usecase.New(usecase.Deps{
		Video:    d.Video,
		ASR:      d.ASR,
		Selector: d.Selector,
		Titles:   d.Titles,
		Sink:     d.Sink,
		Notifier: d.Notifier,
		Log:      log,
	}, settings)
	return &Service{
		root:   root,
		gate:   gate.New(),
		uc:     uc,
		d:      d,
		limits: limits,
		log:    log,
		newID:  uuid.NewString,
	}
}

func (s *Service) DefaultClips() int { return s.limits.DefaultClips }

// ClampClips bounds a requested clip count to [1, MaxClips].
func (s *Service) ClampClips(n int) int {
	return max(1, min(n, s.limits.MaxClips))
}

// Process runs a job to completion on the caller's goroutine. Errors are
// returned only when the job never started; clip failures live in the
// report.
func (s *Service) Process(ctx context.Context, req Request) (usecase.Report, error) {
	req, jobID, err := s.admit(req)
	if err != nil {
		return usecase.Report{}, err
	}
	defer s.gate.Release(req.RequesterID)

	job, err := s.prepare(ctx, jobID, req)
	if err != nil {
		return usecase.Report{JobID: jobID, RequesterID: req.RequesterID, State: usecase.JobAborted, Err: err}, err
	}
	return s.uc.Run(ctx, job), nil
}

// Start admits the request and runs it in the background. Admission errors
// (busy requester, bad request) are returned synchronously.
func (s *Service) Start(ctx context.Context, req Request) (string, error) {
	req, jobID, err := s.admit(req)
	if err != nil {
		return "", err
	}

	jobCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.gate.Release(req.RequesterID)
		defer func() {
			if p := recover(); p != nil {
				s.log.WithFields(logrus.Fields{"job_id": jobID, "panic": p}).Error("job panicked")
			}
		}()

		job, err := s.prepare(jobCtx, jobID, req)
		if err != nil {
			return
		}
		s.uc.Run(jobCtx, job)
	}()
	return jobID, nil
}

// Active lists requesters with a running job.
func (s *Service) Active() []string { return s.gate.Active() }

// Wait blocks until every background job has finished.
func (s *Service) Wait() { s.wg.Wait() }

// Close waits for background jobs and releases the work root.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.wg.Wait()
		if s.root != nil {
			s.closeErr = s.root.Close()
		}
	})
	return s.closeErr
}

func (s *Service) admit(req Request) (Request, string, error) {
	req.RequesterID = strings.TrimSpace(req.RequesterID)
	req.Source = strings.TrimSpace(req.Source)
	if req.RequesterID == "" {
		return req, "", fmt.Errorf("%w: requester id is required", ErrInvalidRequest)
	}
	if req.Source == "" {
		return req, "", fmt.Errorf("%w: source is required", ErrInvalidRequest)
	}
	if ytdlp.IsURL(req.Source) && !ytdlp.IsSupportedURL(req.Source) {
		return req, "", fmt.Errorf("%w: %w", ErrInvalidRequest, ytdlp.ErrUnsupportedURL)
	}
	req.Clips = s.ClampClips(req.Clips)

	if err := s.gate.TryAdmit(req.RequesterID); err != nil {
		return req, "", err
	}
	jobID := s.newID()
	s.log.WithFields(logrus.Fields{
		"job_id":       jobID,
		"requester_id": req.RequesterID,
		"clips":        req.Clips,
	}).Info("job admitted")
	return req, jobID, nil
}

func (s *Service) notify(ctx context.Context, requesterID, message string) {
	if s.d.Notifier == nil {
		return
	}
	if err := s.d.Notifier.Notify(ctx, requesterID, message); err != nil {
		s.log.WithError(err).WithField("requester_id", requesterID).Warn("notify failed")
	}
}
