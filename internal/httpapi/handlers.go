package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/gate"
	"github.com/forPelevin/hlshorts/internal/notify"
	"github.com/forPelevin/hlshorts/internal/pipeline"
)

const maxBodyBytes = 1 << 20

// Jobs is the part of pipeline.Service the HTTP surface drives.
type Jobs interface {
	Start(ctx context.Context, req pipeline.Request) (string, error)
	Active() []string
	DefaultClips() int
}

type Events interface {
	Since(requesterID string, seq int64) []notify.Event
}

type App struct {
	jobs   Jobs
	events Events
	log    logrus.FieldLogger
}

func NewApp(jobs Jobs, events Events, log logrus.FieldLogger) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &App{jobs: jobs, events: events, log: log}
}

type createJobRequest struct {
	RequesterID string `json:"requester_id"`
	Source      string `json:"source"`
	Clips       *int   `json:"clips,omitempty"`
}

type createJobResponse struct {
	JobID string `json:"job_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) Health(w http.ResponseWriter, _ *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) Status(w http.ResponseWriter, _ *http.Request) {
	active := a.jobs.Active()
	a.json(w, http.StatusOK, map[string]any{
		"active_jobs": len(active),
		"requesters":  active,
	})
}

func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var body createJobRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		a.json(w, http.StatusBadRequest, errorResponse{Error: "invalid json body: " + err.Error()})
		return
	}

	clips := a.jobs.DefaultClips()
	if body.Clips != nil {
		clips = *body.Clips
	}
	id, err := a.jobs.Start(r.Context(), pipeline.Request{
		RequesterID: body.RequesterID,
		Source:      body.Source,
		Clips:       clips,
	})
	switch {
	case err == nil:
		a.json(w, http.StatusAccepted, createJobResponse{JobID: id})
	case errors.Is(err, gate.ErrAlreadyBusy):
		a.json(w, http.StatusConflict, errorResponse{Error: "⏳ Already processing your previous video. Please wait!"})
	case errors.Is(err, pipeline.ErrInvalidRequest):
		a.json(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		a.log.WithError(err).Error("start job")
		a.json(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			a.json(w, http.StatusBadRequest, errorResponse{Error: "since must be a non-negative integer"})
			return
		}
		since = v
	}
	events := a.events.Since(id, since)
	if events == nil {
		events = []notify.Event{}
	}
	a.json(w, http.StatusOK, map[string]any{
		"requester_id": id,
		"events":       events,
	})
}
