package geminiservice

import (
	"errors"
	"strings"
)

// Kind is the closed taxonomy every provider failure is mapped into.
// Classification happens once, here; callers above this boundary only
// branch on the Kind and must not re-derive it from message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindServiceBusy
	KindAuthConfig
	KindQuotaExceeded
	KindContentRejected
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindServiceBusy:
		return "service_busy"
	case KindAuthConfig:
		return "auth_config"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindContentRejected:
		return "content_rejected"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// APIError is a classified failure from the AI boundary.
type APIError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the kind is safe to retry.
func (k Kind) Retryable() bool {
	return k == KindServiceBusy
}

// Classify maps an opaque provider error into the taxonomy. The provider
// surfaces failures as message text, so this is substring matching against
// known markers; keeping it in one pure function makes the brittleness
// testable against literal fixtures.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "api key") ||
		strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "permission_denied") ||
		strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403"):
		return KindAuthConfig

	case strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "billing"):
		return KindQuotaExceeded

	case strings.Contains(msg, "safety") ||
		strings.Contains(msg, "blocked") ||
		strings.Contains(msg, "prohibited_content"):
		return KindContentRejected

	case strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "timeout"):
		return KindServiceBusy
	}

	return KindUnknown
}

// UserMessage resolves a kind to the single short sentence shown to the end
// user. Raw provider detail stays in the operator log.
func UserMessage(k Kind) string {
	switch k {
	case KindServiceBusy:
		return "The assistant is busy right now, please try again in a moment."
	case KindAuthConfig:
		return "The assistant is not configured correctly, please contact support."
	case KindQuotaExceeded:
		return "The assistant has reached its usage limit, please try again later."
	case KindContentRejected:
		return "That request could not be processed, please try a different photo or wording."
	case KindMalformedResponse:
		return "The assistant returned an unreadable answer, please try again."
	default:
		return "Something went wrong, please try again."
	}
}
