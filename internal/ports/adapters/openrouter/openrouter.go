package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/hlshorts/internal/ports"
)

const (
	defaultModel        = "meta-llama/llama-3.3-70b-instruct"
	defaultEndpointPath = "/api/v1/chat/completions"
	defaultTimeout      = 30 * time.Second
)

type Adapter struct {
	key      string
	model    string
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	EndpointPath string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

func New(o Options) *Adapter {
	if strings.TrimSpace(o.Model) == "" {
		o.Model = defaultModel
	}
	path := strings.TrimSpace(o.EndpointPath)
	if path == "" {
		path = defaultEndpointPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout + 5*time.Second}
	}
	return &Adapter{
		key:      strings.TrimSpace(o.APIKey),
		model:    strings.TrimSpace(o.Model),
		endpoint: baseOrDefault(o.BaseURL) + path,
		timeout:  o.Timeout,
		client:   client,
	}
}

// baseOrDefault does no policy checks; config validation runs ParseBaseURL
// before an adapter is built.
func baseOrDefault(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return defaultBaseURL
	}
	return raw
}

// Complete sends a single user message and returns the first choice text.
func (a *Adapter) Complete(ctx context.Context, in ports.CompletionRequest) (string, error) {
	if a.key == "" {
		return "", errors.New("openrouter: api key is not configured")
	}
	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": in.Prompt},
		},
		"temperature": in.Temperature,
	}
	if in.MaxTokens > 0 {
		payload["max_tokens"] = in.MaxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", a.timeout, a.model)
		}
		return "", fmt.Errorf("openrouter request: %s", redactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openrouter decode: %w", err)
	}
	if raw.Error != nil && raw.Error.Message != "" {
		return "", fmt.Errorf("openrouter error: %s", truncate(raw.Error.Message, 400))
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openrouter: no choices in response")
	}
	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
