package titles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/types"
)

type fakeLLM struct {
	out  string
	err  error
	reqs []ports.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func words(n int) []types.Word {
	out := make([]types.Word, n)
	for i := range out {
		out[i] = types.Word{Text: "w" + strings.Repeat("x", i%3), Start: float64(i), End: float64(i) + 0.5}
	}
	return out
}

func TestGenerate_SendsFirstFortyWords(t *testing.T) {
	llm := &fakeLLM{out: "🚀 Big Idea"}
	g, err := New(llm, Options{}, quiet())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ws := words(55)
	ws[40].Text = "FORTY_FIRST"
	if got := g.Generate(context.Background(), ws); got != "🚀 Big Idea" {
		t.Fatalf("unexpected title: %q", got)
	}
	if len(llm.reqs) != 1 {
		t.Fatalf("expected one call, got %d", len(llm.reqs))
	}
	req := llm.reqs[0]
	if strings.Contains(req.Prompt, "FORTY_FIRST") {
		t.Fatalf("prompt must stop at 40 words: %q", req.Prompt)
	}
	if !strings.HasPrefix(req.Prompt, "Create a short, catchy YouTube Shorts title") {
		t.Fatalf("unexpected prompt: %q", req.Prompt)
	}
	if req.Temperature != 0.8 || req.MaxTokens != 50 {
		t.Fatalf("unexpected sampling params: %+v", req)
	}
}

func TestGenerate_FallbackOnError(t *testing.T) {
	tests := []struct {
		name string
		llm  ports.LLM
	}{
		{"nil llm", nil},
		{"error", &fakeLLM{err: errors.New("quota exceeded")}},
		{"empty", &fakeLLM{out: "  \n "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.llm, Options{}, quiet())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := g.Generate(context.Background(), words(3)); got != Fallback {
				t.Fatalf("expected fallback, got %q", got)
			}
		})
	}
}

func TestClean(t *testing.T) {
	long := strings.Repeat("é", 70)
	tests := []struct {
		in   string
		want string
	}{
		{`"Quoted Title 🎯"`, "Quoted Title 🎯"},
		{"\n\nFirst line\nsecond line", "First line"},
		{"Title: Done", "Done"},
		{"école", "école"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Clean(long); utf8.RuneCountInString(got) != 60 {
		t.Fatalf("expected 60 runes, got %d", utf8.RuneCountInString(got))
	}
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	body := "title: titles\nrole: copywriter\nprompt: |\n  Title for: {{.Transcript}}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pd, err := LoadPrompt(path)
	if err != nil {
		t.Fatalf("LoadPrompt: %v", err)
	}
	if pd.Role != "copywriter" {
		t.Fatalf("unexpected prompt data: %+v", pd)
	}

	llm := &fakeLLM{out: "ok"}
	g, err := New(llm, Options{Prompt: pd.Prompt, Temperature: 0.5, MaxTokens: 20}, quiet())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.Generate(context.Background(), []types.Word{{Text: "hello"}, {Text: "world"}})
	if got := llm.reqs[0].Prompt; got != "Title for: hello world\n" {
		t.Fatalf("unexpected rendered prompt: %q", got)
	}
	if llm.reqs[0].Temperature != 0.5 || llm.reqs[0].MaxTokens != 20 {
		t.Fatalf("options not applied: %+v", llm.reqs[0])
	}

	empty := filepath.Join(dir, "empty.yaml")
	_ = os.WriteFile(empty, []byte("title: x\n"), 0o644)
	if _, err := LoadPrompt(empty); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestNewRejectsBadTemplate(t *testing.T) {
	if _, err := New(nil, Options{Prompt: "{{.Transcript"}, quiet()); err == nil {
		t.Fatal("expected template parse error")
	}
}
