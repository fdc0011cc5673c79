package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestPublicMessage_UsesSafeMessage(t *testing.T) {
	sentinel := errors.New("SECRET_VALUE")
	err := New(KindSubmission, "safe submission error", sentinel)
	if got := PublicMessage(err); got != "safe submission error" {
		t.Fatalf("PublicMessage() = %q, want %q", got, "safe submission error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped cause to be retained for internal matching")
	}
}

func TestPublicMessage_DefaultPerKind(t *testing.T) {
	err := Timeout(errors.New("poll exceeded 2m0s"))
	if got := PublicMessage(err); got != "Translation timed out." {
		t.Fatalf("PublicMessage() = %q", got)
	}
}

func TestPublicMessage_NonAppErrorIsGeneric(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.1:443: SECRET_HOST")
	if got := PublicMessage(err); got != "Request failed." {
		t.Fatalf("PublicMessage() = %q, want generic message", got)
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("translate inbound: %w", TranslationFailed(errors.New("ERROR")))
	kind, ok := KindOf(err)
	if !ok || kind != KindTranslationFailed {
		t.Fatalf("KindOf() = (%q, %v), want (%q, true)", kind, ok, KindTranslationFailed)
	}
	if !Is(err, KindTranslationFailed) {
		t.Fatalf("Is() = false, want true")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Validation("No question provided"), http.StatusBadRequest},
		{Submission(errors.New("401")), http.StatusInternalServerError},
		{Timeout(errors.New("slow")), http.StatusInternalServerError},
		{Upstream(errors.New("no answer")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsUpstreamFailure(t *testing.T) {
	if IsUpstreamFailure(Validation("empty")) {
		t.Fatalf("validation errors must not count as upstream failures")
	}
	if IsUpstreamFailure(Canceled(context.Canceled)) {
		t.Fatalf("cancellations must not count as upstream failures")
	}
	if !IsUpstreamFailure(Network(errors.New("refused"))) {
		t.Fatalf("network errors must count as upstream failures")
	}
	if !IsUpstreamFailure(errors.New("unclassified")) {
		t.Fatalf("unclassified errors must count as upstream failures")
	}
}

func TestRejected(t *testing.T) {
	err := fmt.Errorf("translate: %w", Rejected("Translation request was rejected by the provider (400).", errors.New("status 400")))

	if !Is(err, KindSubmission) {
		t.Fatalf("expected submission kind, got %v", err)
	}
	if HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus = %d, want 500", HTTPStatus(err))
	}
	if IsUpstreamFailure(err) {
		t.Fatalf("provider rejections of the request input must not count as upstream failures")
	}
	if !IsUpstreamFailure(Submission(errors.New("status 502"))) {
		t.Fatalf("other submission errors must count as upstream failures")
	}
}
