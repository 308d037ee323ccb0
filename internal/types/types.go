package types

// Output frame of every rendered short.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
)

// Word is one transcript token with absolute source times in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Transcript struct {
	Language string `json:"language,omitempty"`
	Words    []Word `json:"words"`
}

// Text joins up to limit words (all when limit <= 0) with single spaces.
func (t Transcript) Text(limit int) string {
	return JoinWords(t.Words, limit)
}

// Within returns the words fully contained in [start, end].
func (t Transcript) Within(start, end float64) []Word {
	var out []Word
	for _, w := range t.Words {
		if w.Start >= start && w.End <= end {
			out = append(out, w)
		}
	}
	return out
}

func JoinWords(words []Word, limit int) string {
	if limit <= 0 || limit > len(words) {
		limit = len(words)
	}
	b := make([]byte, 0, limit*6)
	for i, w := range words[:limit] {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, w.Text...)
	}
	return string(b)
}

// ClipCandidate is a nominated time range; Index is 1-based.
type ClipCandidate struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text,omitempty"`

	InfoScore float64 `json:"info_score,omitempty"`
	HookScore float64 `json:"hook_score,omitempty"`
}

func (c ClipCandidate) Duration() float64 { return c.End - c.Start }

// CaptionCue times are relative to the clip start.
type CaptionCue struct {
	Seq   int
	Start float64
	End   float64
	Text  string
}

// VideoAsset is a video file on local storage.
type VideoAsset struct {
	Path     string
	Duration float64
	Title    string
}

type Manifest struct {
	RequesterID string         `json:"requester_id"`
	JobID       string         `json:"job_id"`
	Clips       []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Total     int     `json:"total"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	File      string  `json:"file"`
	Title     string  `json:"title"`
	Caption   string  `json:"caption"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Captioned bool    `json:"captioned"`
}
