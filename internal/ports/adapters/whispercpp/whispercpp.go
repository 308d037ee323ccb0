package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/hlshorts/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// Transcribe runs whisper.cpp with one word per segment so every segment
// offset is a word timestamp.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, workDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-ml", "1",
		"-sow",
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jsonPath := outPrefix + ".json"
	defer os.Remove(jsonPath)
	jb, err := os.ReadFile(jsonPath)
	if err != nil {
		return types.Transcript{}, err
	}
	return parseOutput(jb)
}

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseOutput(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper.cpp json: %w", err)
	}
	tr := types.Transcript{Language: out.Result.Language}
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		// special tokens such as [_BEG_] or [MUSIC] carry no speech
		if text == "" || (strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")) {
			continue
		}
		from := float64(seg.Offsets.From) / 1000
		to := float64(seg.Offsets.To) / 1000
		if to < from {
			to = from
		}
		tr.Words = append(tr.Words, types.Word{Text: text, Start: from, End: to})
	}
	return tr, nil
}
