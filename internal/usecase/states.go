package usecase

import "fmt"

type JobState string

const (
	JobAdmitted        JobState = "admitted"
	JobTranscribing    JobState = "transcribing"
	JobFindingClips    JobState = "finding_clips"
	JobProcessingClips JobState = "processing_clips"
	JobCompleted       JobState = "completed"
	JobAborted         JobState = "aborted"
)

func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobAborted
}

var jobTransitions = map[JobState][]JobState{
	JobAdmitted:        {JobTranscribing, JobAborted},
	JobTranscribing:    {JobFindingClips, JobAborted},
	JobFindingClips:    {JobProcessingClips, JobAborted},
	JobProcessingClips: {JobCompleted},
}

type ClipState string

const (
	ClipPending            ClipState = "pending"
	ClipExtracting         ClipState = "extracting"
	ClipReframing          ClipState = "reframing"
	ClipCompilingSubtitles ClipState = "compiling_subtitles"
	ClipBurning            ClipState = "burning"
	ClipGeneratingTitle    ClipState = "generating_title"
	ClipDelivering         ClipState = "delivering"
	ClipDelivered          ClipState = "delivered"
	ClipFailed             ClipState = "failed"
)

func (s ClipState) Terminal() bool {
	return s == ClipDelivered || s == ClipFailed
}

// Only extraction, reframing and delivery may fail a clip; subtitle and
// title stages degrade instead.
var clipTransitions = map[ClipState][]ClipState{
	ClipPending:            {ClipExtracting},
	ClipExtracting:         {ClipReframing, ClipFailed},
	ClipReframing:          {ClipCompilingSubtitles, ClipFailed},
	ClipCompilingSubtitles: {ClipBurning},
	ClipBurning:            {ClipGeneratingTitle},
	ClipGeneratingTitle:    {ClipDelivering},
	ClipDelivering:         {ClipDelivered, ClipFailed},
}

func isValidTransition[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkJobTransition(from, to JobState) error {
	if !isValidTransition(jobTransitions, from, to) {
		return fmt.Errorf("invalid job transition: %s -> %s", from, to)
	}
	return nil
}

func checkClipTransition(from, to ClipState) error {
	if !isValidTransition(clipTransitions, from, to) {
		return fmt.Errorf("invalid clip transition: %s -> %s", from, to)
	}
	return nil
}
