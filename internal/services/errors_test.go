package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"autopost/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrControlNotFound, "file_select", "locate", "upload control not found", base)
	if !errors.Is(err, services.ErrControlNotFound) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"control not found", "file_select", "locate", "upload control not found", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToInternal(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrInternal) {
		t.Fatalf("expected internal marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "publish failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want services.Kind
	}{
		{nil, services.KindNone},
		{services.Wrap(services.ErrFileMissing, "dispatch", "stat", "gone", nil), services.KindFileMissing},
		{services.Wrap(services.ErrSessionExpired, "login_verify", "", "", nil), services.KindSessionExpired},
		{services.Wrap(services.ErrUploadTimeout, "upload_wait", "", "", nil), services.KindUploadTimeout},
		{services.Wrap(services.ErrPlatformReported, "confirm_wait", "", "", nil), services.KindPlatformReported},
		{services.Wrap(services.ErrClickExhausted, "post_click", "", "", nil), services.KindClickExhausted},
		{fmt.Errorf("wrapped: %w", context.Canceled), services.KindCanceled},
		{services.Wrap(services.ErrUploadTimeout, "upload_wait", "", "", context.Canceled), services.KindCanceled},
		{errors.New("plain"), services.KindInternal},
	}
	for _, tc := range cases {
		if got := services.KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(nil) {
		t.Fatal("nil error is not a failed attempt")
	}
	if services.Retryable(services.Wrap(services.ErrFileMissing, "dispatch", "", "", nil)) {
		t.Fatal("file missing must bypass retry")
	}
	if !services.Retryable(services.Wrap(services.ErrSessionExpired, "login_verify", "", "", nil)) {
		t.Fatal("session expired should count against the retry budget")
	}
}
