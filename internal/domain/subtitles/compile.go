package subtitles

import (
	"errors"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// DefaultGroupSize is the number of words per caption cue.
const DefaultGroupSize = 5

// ErrNoCaptionableWords means the clip range holds no transcript words. It is
// a degrade signal, not a failure: the clip is rendered without captions.
var ErrNoCaptionableWords = errors.New("no captionable words")

// Compile groups the words of one clip into cues of up to groupSize words.
// Cue times are made relative to clipStart.
func Compile(words []types.Word, clipStart float64, groupSize int) ([]types.CaptionCue, error) {
	if len(words) == 0 {
		return nil, ErrNoCaptionableWords
	}
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}

	cues := make([]types.CaptionCue, 0, (len(words)+groupSize-1)/groupSize)
	for i := 0; i < len(words); i += groupSize {
		group := words[i:min(i+groupSize, len(words))]
		parts := make([]string, 0, len(group))
		for _, w := range group {
			parts = append(parts, cueText(w.Text))
		}
		cues = append(cues, types.CaptionCue{
			Seq:   len(cues) + 1,
			Start: group[0].Start - clipStart,
			End:   group[len(group)-1].End - clipStart,
			Text:  strings.Join(parts, " "),
		})
	}
	return cues, nil
}

// CompileClip selects the words contained in the candidate and compiles them.
func CompileClip(tr types.Transcript, c types.ClipCandidate, groupSize int) ([]types.CaptionCue, error) {
	return Compile(tr.Within(c.Start, c.End), c.Start, groupSize)
}

// cueText keeps a word on a single line so the SRT block layout holds.
func cueText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
