package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// redactor scrubs obvious PII and secrets from values headed for logs.
// Request and response bodies are never logged, so only query strings and
// header values pass through it.
type redactor struct {
	mask map[string]struct{}
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// JWTs are three base64url segments; the first always starts with "eyJ".
	jwtRE = regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)
	// Query keys whose values are always dropped.
	secretParamRE = regexp.MustCompile(`(?i)\b(password|token|access_token|refresh_token|apikey|api_key)=[^&]*`)
)

func newRedactor(extra []string) *redactor {
	mask := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"apikey":        {},
	}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}
	return &redactor{mask: mask}
}

// text redacts secrets, then tokens, IDs and emails. Order matters: secret
// params are cut first so their values never reach the looser patterns.
func (r *redactor) text(s string) string {
	if s == "" {
		return s
	}
	s = secretParamRE.ReplaceAllString(s, "$1=[REDACTED]")
	s = jwtRE.ReplaceAllString(s, "[REDACTED:token]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return s
}

func (r *redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.mask[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.text(strings.Join(vv, ", "))
	}
	return out
}
