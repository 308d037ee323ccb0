package openrouter

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

// Groq serves the same chat completions API under /openai/v1.
var defaultAllowedHosts = []string{"openrouter.ai", "api.openrouter.ai", "api.groq.com"}

// BaseURLError explains why a configured base URL was refused.
type BaseURLError struct {
	URL    string
	Reason string
}

func (e *BaseURLError) Error() string {
	return fmt.Sprintf("invalid OPENROUTER_BASE_URL %q: %s", e.URL, e.Reason)
}

// ParseBaseURL accepts only absolute https URLs without credentials, query or
// fragment whose host is in allowedHosts (or the built-in list when empty).
// The API key is sent to this host, so anything else is refused.
func ParseBaseURL(raw string, allowedHosts []string) (*url.URL, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		raw = defaultBaseURL
	}
	refuse := func(reason string) (*url.URL, error) {
		return nil, &BaseURLError{URL: raw, Reason: reason}
	}

	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return refuse(err.Error())
	case !u.IsAbs() || u.Host == "":
		return refuse("absolute URL with host is required")
	case u.User != nil:
		return refuse("userinfo is not allowed")
	case u.RawQuery != "" || u.Fragment != "" || u.ForceQuery:
		return refuse("query and fragment are not allowed")
	case u.Hostname() == "":
		return refuse("host is required")
	case !strings.EqualFold(u.Scheme, "https"):
		return refuse("https is required")
	}

	host := strings.ToLower(u.Hostname())
	if !hostAllowed(host, allowedHosts) {
		return refuse(fmt.Sprintf("host %q is not in OPENROUTER_ALLOWED_HOSTS", host))
	}
	return u, nil
}

// ValidateBaseURL is ParseBaseURL for callers that only need the verdict.
func ValidateBaseURL(raw string, allowedHosts []string) error {
	_, err := ParseBaseURL(raw, allowedHosts)
	return err
}

func hostAllowed(host string, allowedHosts []string) bool {
	hosts := cleanHosts(allowedHosts)
	if len(hosts) == 0 {
		hosts = defaultAllowedHosts
	}
	for _, h := range hosts {
		if h == host {
			return true
		}
	}
	return false
}

// cleanHosts tolerates entries written as URLs or host:port.
func cleanHosts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, h := range in {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "https://")
		v = strings.TrimPrefix(v, "http://")
		v, _, _ = strings.Cut(strings.Trim(v, "/"), "/")
		v, _, _ = strings.Cut(v, ":")
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
