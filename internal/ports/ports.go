package ports

import (
	"context"

	"github.com/forPelevin/hlshorts/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	// ExtractSegment copies [start, start+duration) without re-encoding.
	ExtractSegment(ctx context.Context, inMP4 string, start, duration float64, outMP4 string) error
	// Reframe scales and center-crops to width x height, copying audio.
	Reframe(ctx context.Context, inMP4 string, width, height int, outMP4 string) error
	BurnSubtitles(ctx context.Context, inMP4, track, forceStyle, outMP4 string) error
	ProbeDuration(ctx context.Context, inMP4 string) (float64, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, workDir string) (types.Transcript, error)
}

// CandidateSelector nominates clip ranges. limit <= 0 asks for all.
type CandidateSelector interface {
	Select(ctx context.Context, tr types.Transcript, limit int) ([]types.ClipCandidate, error)
}

type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type LLM interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TitleGenerator never fails: errors are absorbed into a fallback title.
type TitleGenerator interface {
	Generate(ctx context.Context, words []types.Word) string
}

type Delivery struct {
	RequesterID string
	JobID       string
	VideoPath   string
	Caption     string
	Title       string
	Width       int
	Height      int
	Index       int
	Total       int
	Start       float64
	End         float64
	Captioned   bool
}

// DeliverySink hands a finished clip to the requester. The file at
// VideoPath is removed after Deliver returns.
type DeliverySink interface {
	Deliver(ctx context.Context, d Delivery) error
}

type Notifier interface {
	Notify(ctx context.Context, requesterID, message string) error
}

// Downloader fetches a remote source video into dir.
type Downloader interface {
	Download(ctx context.Context, url, dir string) (types.VideoAsset, error)
}

// JobFinisher is implemented by sinks that keep per-job state.
type JobFinisher interface {
	FinishJob(ctx context.Context, jobID string)
}
