package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure markers for a publish attempt. Phases wrap them with Wrap so the
// scheduler and operators can classify a failure without parsing messages.
var (
	ErrFileMissing        = errors.New("file missing")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionUnavailable = errors.New("session unavailable")
	ErrControlNotFound    = errors.New("control not found")
	ErrUploadTimeout      = errors.New("upload timeout")
	ErrConfirmTimeout     = errors.New("confirm timeout")
	ErrPlatformReported   = errors.New("platform reported error")
	ErrClickExhausted     = errors.New("click strategies exhausted")
	ErrInternal           = errors.New("internal error")
	ErrConfiguration      = errors.New("configuration error")
)

// Kind is the short classification stored in logs and notifications.
type Kind string

const (
	KindNone               Kind = ""
	KindFileMissing        Kind = "file_missing"
	KindSessionExpired     Kind = "session_expired"
	KindSessionUnavailable Kind = "session_unavailable"
	KindControlNotFound    Kind = "control_not_found"
	KindUploadTimeout      Kind = "upload_timeout"
	KindConfirmTimeout     Kind = "confirm_timeout"
	KindPlatformReported   Kind = "platform_reported"
	KindClickExhausted     Kind = "click_exhausted"
	KindCanceled           Kind = "canceled"
	KindConfiguration      Kind = "configuration"
	KindInternal           Kind = "internal"
)

var kindMarkers = []struct {
	marker error
	kind   Kind
}{
	{ErrFileMissing, KindFileMissing},
	{ErrSessionExpired, KindSessionExpired},
	{ErrSessionUnavailable, KindSessionUnavailable},
	{ErrControlNotFound, KindControlNotFound},
	{ErrUploadTimeout, KindUploadTimeout},
	{ErrConfirmTimeout, KindConfirmTimeout},
	{ErrPlatformReported, KindPlatformReported},
	{ErrClickExhausted, KindClickExhausted},
	{ErrConfiguration, KindConfiguration},
	{ErrInternal, KindInternal},
}

// Wrap builds an error message that includes phase context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err. Context cancellation wins over any marker because a
// shutdown mid-phase is not the platform's fault.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if IsCanceled(err) {
		return KindCanceled
	}
	for _, km := range kindMarkers {
		if errors.Is(err, km.marker) {
			return km.kind
		}
	}
	return KindInternal
}

// Retryable reports whether a failed attempt should count against the retry
// budget rather than fail the item outright.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrFileMissing)
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "publish failure"
	}
	return strings.Join(parts, ": ")
}
