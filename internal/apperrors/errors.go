package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindSubmission        Kind = "submission"
	KindResultFetch       Kind = "result_fetch"
	KindTranslationFailed Kind = "translation_failed"
	KindTimeout           Kind = "timeout"
	KindUpstream          Kind = "upstream"
	KindNetwork           Kind = "network"
	KindCanceled          Kind = "canceled"
)

type Error struct {
	Kind Kind
	// SafeMessage is returned to HTTP clients and printed by the CLI.
	SafeMessage string
	// Cause keeps the original internal error for server-side logs.
	Cause error
	// ClientCaused marks a provider refusal of this request's own input
	// (a 4xx other than auth or rate limiting).
	ClientCaused bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "Invalid request."
	case KindSubmission:
		return "Translation request was rejected by the provider."
	case KindResultFetch:
		return "Translation result could not be retrieved."
	case KindTranslationFailed:
		return "Translation failed."
	case KindTimeout:
		return "Translation timed out."
	case KindUpstream:
		return "Answer service returned an invalid response."
	case KindNetwork:
		return "Upstream service is unreachable."
	case KindCanceled:
		return "Request canceled."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Validation(msg string) error {
	return New(KindValidation, msg, errors.New(msg))
}

func Submission(err error) error {
	return New(KindSubmission, "", err)
}

// NewClientCaused is New for a provider refusal of the request's own
// input. Such errors say nothing about the provider's health.
func NewClientCaused(kind Kind, safeMessage string, cause error) error {
	err := New(kind, safeMessage, cause).(*Error)
	err.ClientCaused = true
	return err
}

// Rejected is a submission the provider refused because of the request
// itself, such as an unsupported language id.
func Rejected(safeMessage string, cause error) error {
	return NewClientCaused(KindSubmission, safeMessage, cause)
}

func ResultFetch(err error) error {
	return New(KindResultFetch, "", err)
}

func TranslationFailed(err error) error {
	return New(KindTranslationFailed, "", err)
}

func Timeout(err error) error {
	return New(KindTimeout, "", err)
}

func Upstream(err error) error {
	return New(KindUpstream, "", err)
}

func Network(err error) error {
	return New(KindNetwork, "", err)
}

func Canceled(err error) error {
	return New(KindCanceled, "", err)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// PublicMessage returns the text that may be shown to a client.
// Errors that were never classified get a generic message so raw causes
// (URLs, provider bodies) stay in the logs.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return defaultSafeMessage("")
}

// HTTPStatus maps an error to the status code the relay answers with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if Is(err, KindValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsUpstreamFailure reports whether err says something about the health of
// a remote provider. Client mistakes and cancellations do not.
func IsUpstreamFailure(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return err != nil
	}
	if e.ClientCaused {
		return false
	}
	switch e.Kind {
	case KindValidation, KindCanceled, KindTranslationFailed:
		return false
	default:
		return true
	}
}
