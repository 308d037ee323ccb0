package subtitles

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

// MarshalSRT serializes cues as blocks of: sequence, time range, text, blank line.
func MarshalSRT(cues []types.CaptionCue) []byte {
	var b bytes.Buffer
	for _, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Seq, FormatTimestamp(c.Start), FormatTimestamp(c.End), c.Text)
	}
	return b.Bytes()
}

func ParseSRT(data []byte) ([]types.CaptionCue, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	var cues []types.CaptionCue
	for n, block := range strings.Split(strings.TrimSpace(text), "\n\n") {
		block = strings.Trim(block, "\n")
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("srt block %d: want at least 2 lines, got %d", n+1, len(lines))
		}
		seq, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("srt block %d: sequence: %w", n+1, err)
		}
		from, to, ok := strings.Cut(lines[1], "-->")
		if !ok {
			return nil, fmt.Errorf("srt block %d: missing time range", n+1)
		}
		start, err := ParseTimestamp(from)
		if err != nil {
			return nil, fmt.Errorf("srt block %d: %w", n+1, err)
		}
		end, err := ParseTimestamp(to)
		if err != nil {
			return nil, fmt.Errorf("srt block %d: %w", n+1, err)
		}
		cues = append(cues, types.CaptionCue{
			Seq:   seq,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}
