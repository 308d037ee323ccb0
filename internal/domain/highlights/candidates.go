package highlights

import (
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// BuildCandidates creates overlapping word windows between minClip and
// maxClip seconds. Indices are left zero; Select assigns them.
func BuildCandidates(tr types.Transcript, minClip, maxClip float64) []types.ClipCandidate {
	if minClip <= 0 {
		minClip = 1
	}
	if maxClip <= 0 || maxClip < minClip {
		return nil
	}
	words := usableWords(tr.Words)
	if len(words) < 2 {
		return nil
	}
	return buildFromWords(words, minClip, maxClip)
}

func usableWords(in []types.Word) []types.Word {
	out := make([]types.Word, 0, len(in))
	for _, w := range in {
		if w.End <= w.Start {
			continue
		}
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		w.Text = text
		out = append(out, w)
	}
	return out
}

func buildFromWords(words []types.Word, minClip, maxClip float64) []types.ClipCandidate {
	// Caps keep runtime predictable on long transcripts.
	const (
		maxCandidates = 500
		maxWordsInWin = 240
		maxStartCount = 140
		endStride     = 4
	)

	startStride := 1
	if len(words) > maxStartCount {
		startStride = (len(words) + maxStartCount - 1) / maxStartCount
	}
	startIdxs := make([]int, 0, len(words)/startStride+2)
	for i := 0; i < len(words)-1; i += startStride {
		startIdxs = append(startIdxs, i)
	}
	// Late parts of the transcript still get a start point when downsampled.
	lastStart := len(words) - 2
	if lastStart >= 0 && (len(startIdxs) == 0 || startIdxs[len(startIdxs)-1] != lastStart) {
		startIdxs = append(startIdxs, lastStart)
	}

	var out []types.ClipCandidate
	for _, i := range startIdxs {
		start := words[i].Start
		parts := make([]string, 0, maxWordsInWin)
		for j := i; j < len(words) && j-i <= maxWordsInWin; j++ {
			parts = append(parts, words[j].Text)
			if j == i {
				continue
			}
			if (j-i)%endStride != 0 && j != i+1 {
				continue
			}

			end := words[j].End
			win := end - start
			if win > maxClip {
				break
			}
			if win < minClip {
				continue
			}

			text := strings.Join(parts, " ")
			sig := Score(text)
			out = append(out, types.ClipCandidate{Start: start, End: end, Text: text, InfoScore: sig.Info, HookScore: sig.Hook})
			if len(out) >= maxCandidates {
				return out
			}
		}
	}
	return out
}
