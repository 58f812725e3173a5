package ai

import (
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind is one bucket of the closed provider failure taxonomy.
type Kind string

const (
	KindRateLimit        Kind = "rate_limit"
	KindAPIKeyInvalid    Kind = "api_key_invalid"
	KindQuotaExceeded    Kind = "quota_exceeded"
	KindNetworkError     Kind = "network_error"
	KindModelUnavailable Kind = "model_unavailable"
	KindUnknown          Kind = "unknown"
)

// KindInfo is the fixed metadata record attached to each error kind.
// Retryability is a property of the kind, never of the individual error.
type KindInfo struct {
	Retryable   bool
	Description string
	Remediation map[ProviderID]string
}

var kindTable = map[Kind]KindInfo{
	KindRateLimit: {
		Retryable:   true,
		Description: "The provider rejected the request because of request-rate limits",
		Remediation: map[ProviderID]string{
			ProviderOpenAI:    "Wait for the rate window to reset or raise your limits at platform.openai.com/account/limits",
			ProviderAnthropic: "Wait for the rate window to reset or review your limits at console.anthropic.com/settings/limits",
			ProviderGemini:    "Wait for the rate window to reset or review your quota at aistudio.google.com",
		},
	},
	KindAPIKeyInvalid: {
		Retryable:   false,
		Description: "The provider rejected the configured API key",
		Remediation: map[ProviderID]string{
			ProviderOpenAI:    "Rotate or re-enter your key at platform.openai.com/api-keys",
			ProviderAnthropic: "Rotate or re-enter your key at console.anthropic.com/settings/keys",
			ProviderGemini:    "Rotate or re-enter your key at aistudio.google.com/apikey",
		},
	},
	KindQuotaExceeded: {
		Retryable:   false,
		Description: "The provider account has exhausted its usage quota or billing allowance",
		Remediation: map[ProviderID]string{
			ProviderOpenAI:    "Check your billing status at platform.openai.com/account/billing",
			ProviderAnthropic: "Check your billing status at console.anthropic.com/settings/billing",
			ProviderGemini:    "Check your billing status in the Google Cloud console",
		},
	},
	KindNetworkError: {
		Retryable:   true,
		Description: "The request never produced a provider response",
		Remediation: map[ProviderID]string{},
	},
	KindModelUnavailable: {
		Retryable:   true,
		Description: "The requested model does not exist or is not available to this account",
		Remediation: map[ProviderID]string{},
	},
	KindUnknown: {
		Retryable:   true,
		Description: "The provider failed in a way that does not match a known category",
		Remediation: map[ProviderID]string{},
	},
}

// Valid reports whether the kind belongs to the taxonomy.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// Retryable reports whether retrying this kind can ever succeed.
func (k Kind) Retryable() bool {
	return kindTable[k].Retryable
}

// Terminal reports whether this kind must short-circuit the retry loop.
func (k Kind) Terminal() bool {
	return !kindTable[k].Retryable
}

// Description returns the human description for the kind.
func (k Kind) Description() string {
	return kindTable[k].Description
}

// Remediation returns the provider-specific next step for the kind, or the
// generic description when no provider-specific advice exists.
func (k Kind) Remediation(p ProviderID) string {
	info := kindTable[k]
	if s, ok := info.Remediation[p]; ok {
		return s
	}
	return info.Description
}

// Error is a classified provider failure. Adapters create these at the wire
// boundary; the retry controller and callers branch on Kind.
type Error struct {
	Provider   ProviderID
	Kind       Kind
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the retry controller may attempt this call again.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// Remediation returns the user-facing next step for this failure.
func (e *Error) Remediation() string {
	return e.Kind.Remediation(e.Provider)
}

// AsError unwraps err to a classified provider error if one is present.
func AsError(err error) (*Error, bool) {
	var aiErr *Error
	if stderrors.As(err, &aiErr) {
		return aiErr, true
	}
	return nil, false
}

// KindOf returns the classified kind of err, defaulting to unknown for
// anything that did not come through an adapter.
func KindOf(err error) Kind {
	if aiErr, ok := AsError(err); ok {
		return aiErr.Kind
	}
	return KindUnknown
}

// quotaMarkers are vendor-specific billing error fragments. OpenAI reports
// exhausted quota as 429 insufficient_quota, so the body check runs before
// the status mapping.
var quotaMarkers = []string{
	"insufficient_quota",
	"exceeded your current quota",
	"billing hard limit",
	"resource_exhausted: quota",
}

func bodyMentionsQuota(body []byte) bool {
	lower := strings.ToLower(string(body))
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ClassifyStatus maps a non-2xx provider response to a classified error.
func ClassifyStatus(provider ProviderID, status int, retryAfter string, body []byte, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("provider returned HTTP %d", status)
	}

	e := &Error{
		Provider:   provider,
		StatusCode: status,
		Message:    message,
	}

	switch {
	case status == http.StatusPaymentRequired || bodyMentionsQuota(body):
		e.Kind = KindQuotaExceeded
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
		e.RetryAfter = parseRetryAfter(retryAfter)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAPIKeyInvalid
	case status == http.StatusNotFound:
		e.Kind = KindModelUnavailable
	default:
		e.Kind = KindUnknown
	}
	return e
}

// ClassifyTransport maps a request-layer failure (DNS, timeout, connection
// reset) to a network error.
func ClassifyTransport(provider ProviderID, err error) *Error {
	message := "request failed before a provider response"
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case stderrors.As(err, &dnsErr):
		message = "DNS lookup failed"
	case stderrors.As(err, &netErr) && netErr.Timeout():
		message = "request timed out"
	}
	return &Error{
		Provider: provider,
		Kind:     KindNetworkError,
		Message:  message,
		Err:      err,
	}
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
