package highlights

import (
	"regexp"
	"strings"
)

// Signals is the heuristic worth of a window of transcript text. Info
// rewards concrete, self-contained content; Hook rewards lines that grab
// attention. Both are clamped to [0, maxSignal].
type Signals struct {
	Info float64
	Hook float64
}

func (s Signals) Total() float64 { return s.Info + s.Hook }

const maxSignal = 10

// signalRule adds weight per match, up to limit matches (0 = unlimited).
type signalRule struct {
	re     *regexp.Regexp
	weight float64
	limit  int
	hook   bool
	once   bool
}

var signalRules = []signalRule{
	{re: regexp.MustCompile(`\b\d+(?:[\.,]\d+)?\b`), weight: 0.4},
	{re: regexp.MustCompile(`(?i)\b(how\s+to|step\s+\d+|first|second|third|do\s+this|the\s+trick)\b`), weight: 1.2, once: true},
	{re: regexp.MustCompile(`[.!?](\s|$)`), weight: 0.2, limit: 4},
	{re: regexp.MustCompile(`(?i)\b(important|key|secret|mistake|never|always|crazy|insane|nobody|truth|here\s+is\s+why|remember|wait)\b`), weight: 0.9, hook: true},
	{re: regexp.MustCompile(`(?i)\bstep\s+\d+\b`), weight: 0.4, hook: true},
	{re: regexp.MustCompile(`\?`), weight: 0.7, hook: true},
	{re: regexp.MustCompile(`!`), weight: 0.3, hook: true},
}

var reYouAddr = regexp.MustCompile(`(?i)\b(you|your)\b`)

// Score rates text; long windows pay a small info penalty and direct address
// ("you") raises the hook in proportion to length.
func Score(text string) Signals {
	t := strings.TrimSpace(text)
	if t == "" {
		return Signals{}
	}
	runes := float64(len([]rune(t)))

	var s Signals
	for _, r := range signalRules {
		n := len(r.re.FindAllStringIndex(t, -1))
		if r.once {
			n = min(n, 1)
		}
		if r.limit > 0 {
			n = min(n, r.limit)
		}
		if r.hook {
			s.Hook += float64(n) * r.weight
		} else {
			s.Info += float64(n) * r.weight
		}
	}
	s.Info -= 0.0006 * runes
	s.Hook += 40 * float64(len(reYouAddr.FindAllStringIndex(t, -1))) / runes

	s.Info = clamp(s.Info, 0, maxSignal)
	s.Hook = clamp(s.Hook, 0, maxSignal)
	return s
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(x, hi))
}
