package titles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/hlshorts/internal/ports"
	"github.com/forPelevin/hlshorts/internal/types"
)

const (
	Fallback = "🔥 Amazing Moment"

	maxWords = 40
	maxRunes = 60

	defaultTemperature = 0.8
	defaultMaxTokens   = 50
)

const defaultPrompt = `Create a short, catchy YouTube Shorts title (max 50 characters) with emojis. Based on this transcript: {{.Transcript}}`

// PromptData is the YAML layout of a prompt override file. Only Prompt is
// used for rendering; it may reference {{.Transcript}}.
type PromptData struct {
	Title       string `yaml:"title"`
	Role        string `yaml:"role"`
	Prompt      string `yaml:"prompt"`
	Description string `yaml:"description"`
}

func LoadPrompt(path string) (PromptData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PromptData{}, fmt.Errorf("read prompt file: %w", err)
	}
	var pd PromptData
	if err := yaml.Unmarshal(b, &pd); err != nil {
		return PromptData{}, fmt.Errorf("parse prompt file: %w", err)
	}
	if strings.TrimSpace(pd.Prompt) == "" {
		return PromptData{}, errors.New("prompt file: prompt is empty")
	}
	return pd, nil
}

type Options struct {
	Temperature float64
	MaxTokens   int
	// Prompt is a text/template body; empty uses the built-in prompt.
	Prompt string
}

// Generator asks an LLM for a clip title and never fails: any error yields
// Fallback.
type Generator struct {
	llm         ports.LLM
	tmpl        *template.Template
	temperature float64
	maxTokens   int
	log         logrus.FieldLogger
}

// New returns a generator. A nil llm always produces Fallback.
func New(llm ports.LLM, o Options, log logrus.FieldLogger) (*Generator, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	body := o.Prompt
	if strings.TrimSpace(body) == "" {
		body = defaultPrompt
	}
	tmpl, err := template.New("title").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse title prompt: %w", err)
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return &Generator{
		llm:         llm,
		tmpl:        tmpl,
		temperature: o.Temperature,
		maxTokens:   o.MaxTokens,
		log:         log,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, words []types.Word) string {
	if g.llm == nil {
		return Fallback
	}
	prompt, err := g.render(types.JoinWords(words, maxWords))
	if err != nil {
		g.log.WithError(err).Warn("title prompt render failed; using fallback")
		return Fallback
	}
	out, err := g.llm.Complete(ctx, ports.CompletionRequest{
		Prompt:      prompt,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		g.log.WithError(err).Warn("title generation failed; using fallback")
		return Fallback
	}
	title := Clean(out)
	if title == "" {
		g.log.Warn("title generation returned empty text; using fallback")
		return Fallback
	}
	return title
}

func (g *Generator) render(transcript string) (string, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, struct{ Transcript string }{transcript}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Clean takes the first non-empty line, strips wrapping quotes, normalizes
// to NFC and cuts to 60 runes.
func Clean(s string) string {
	line := ""
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = strings.TrimSpace(strings.Trim(line, "\"'`*"))
	line = strings.TrimPrefix(line, "Title:")
	line = norm.NFC.String(strings.TrimSpace(line))
	if utf8.RuneCountInString(line) <= maxRunes {
		return line
	}
	r := []rune(line)
	return strings.TrimSpace(string(r[:maxRunes]))
}
