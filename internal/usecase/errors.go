package usecase

import "errors"

// Job-level aborts: no clip can be produced.
var (
	ErrSourceUnavailable   = errors.New("source video unavailable")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrNoClipsFound        = errors.New("no clips found")
)

// Per-clip failures: the clip stops, the job goes on.
var (
	ErrSegmentExtractionFailed = errors.New("segment extraction failed")
	ErrReframeFailed           = errors.New("reframe failed")
	ErrDeliveryFailed          = errors.New("delivery failed")
)

// Degraded or absorbed: logged, never surfaced to the requester.
var (
	ErrSubtitleBurnFailed    = errors.New("subtitle burn failed")
	ErrTitleGenerationFailed = errors.New("title generation failed")
)
