package uploader

import (
	"context"
	"log/slog"
	"path/filepath"

	"autopost/internal/browser"
	"autopost/internal/diagnostics"
	"autopost/internal/logging"
	"autopost/internal/services"
)

// Phase names, also used as the phase field in logs and error messages.
const (
	PhaseSessionInit  = "session_init"
	PhaseLoginVerify  = "login_verify"
	PhaseFileSelect   = "file_select"
	PhaseUploadWait   = "upload_wait"
	PhasePopupDismiss = "popup_dismiss"
	PhaseCaptionEntry = "caption_entry"
	PhaseSubmitReview = "submit_review"
	PhasePostClick    = "post_click"
	PhaseConfirmWait  = "confirm_wait"
)

// DivertedMessage is the result message for a soft success.
const DivertedMessage = "diverted, assumed processed"

type phase struct {
	name string
	run  func(context.Context) error
	// checkpoint is the diagnostics label captured after the phase succeeds.
	checkpoint string
}

// attempt holds the state of one publish attempt.
type attempt struct {
	u      *Uploader
	ctx    context.Context
	req    Request
	id     string
	logger *slog.Logger

	phase     string
	session   browser.Session
	submit    browser.Element
	posted    bool
	diverted  bool
	confirmed string
	artifacts []string
}

func publishPhases(a *attempt) []phase {
	return []phase{
		{PhaseSessionInit, a.openSession, ""},
		{PhaseLoginVerify, a.verifyLogin, diagnostics.LabelLoginCheck},
		{PhaseFileSelect, a.selectFile, diagnostics.LabelFileSelect},
		{PhaseUploadWait, a.waitForUpload, diagnostics.LabelUploadReady},
		{PhasePopupDismiss, a.dismissPopups, diagnostics.LabelPopups},
		{PhaseCaptionEntry, a.enterCaption, diagnostics.LabelCaption},
		{PhaseSubmitReview, a.reviewSubmit, diagnostics.LabelBeforePost},
		{PhasePostClick, a.clickPost, diagnostics.LabelAfterPost},
		{PhaseConfirmWait, a.waitForConfirmation, ""},
	}
}

func (a *attempt) run(ctx context.Context, phases []phase) error {
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrInternal, p.name, "", "canceled before phase", err)
		}
		a.phase = p.name
		phaseCtx := services.WithPhase(ctx, p.name)
		a.logger.Debug("phase started", logging.String(logging.FieldPhase, p.name))
		if err := p.run(phaseCtx); err != nil {
			return err
		}
		if p.checkpoint != "" {
			a.capture(phaseCtx, p.checkpoint, a.displayName())
		}
	}
	return nil
}

func (a *attempt) fail(ctx context.Context, err error) Result {
	kind := services.KindOf(err)
	logging.ErrorWithContext(a.logger, "publish attempt failed", "publish_failed",
		logging.String(logging.FieldPhase, a.phase),
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
		logging.String(logging.FieldImpact, "item not posted this attempt"),
	)
	a.capture(services.WithPhase(ctx, a.phase), diagnostics.LabelError, a.displayName()+" "+err.Error())
	return Result{
		Success: false,
		Message: err.Error(),
		Kind:    kind,
		Err:     err,
		Phase:   a.phase,
	}
}

func (a *attempt) succeed(ctx context.Context) Result {
	message := "posted"
	if a.diverted {
		message = DivertedMessage
	} else if a.confirmed != "" {
		message = "posted (" + a.confirmed + ")"
	}
	a.capture(ctx, diagnostics.LabelFinal, a.displayName()+" "+message)
	a.logger.Info("publish attempt succeeded",
		logging.String("result", message),
		logging.Bool("diverted", a.diverted),
	)
	return Result{Success: true, Diverted: a.diverted, Message: message, Phase: a.phase}
}

// divert records a soft success: the submit click went out but no terminal
// signal was observed.
func (a *attempt) divert(reason string) {
	a.diverted = true
	logging.WarnWithContext(a.logger, "confirmation not observed", "confirm_diverted",
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "verify the post on the account profile"),
		logging.String(logging.FieldImpact, "item recorded as posted without confirmation"),
	)
}

func (a *attempt) capture(ctx context.Context, label, caption string) {
	if a.session == nil {
		return
	}
	if path := a.u.reporter.Capture(ctx, a.session, label, caption); path != "" {
		a.artifacts = append(a.artifacts, path)
	}
}

func (a *attempt) teardown() {
	if a.session == nil {
		return
	}
	if err := a.session.Close(); err != nil {
		logging.WarnWithContext(a.logger, "browser session close failed", "browser_teardown",
			logging.Error(err),
			logging.String(logging.FieldImpact, "browser process may linger until exit"),
		)
	}
	a.session = nil
}

func (a *attempt) displayName() string {
	if a.req.FilePath == "" {
		return "session"
	}
	return filepath.Base(a.req.FilePath)
}

func failureHint(kind services.Kind) string {
	switch kind {
	case services.KindSessionExpired:
		return "log in again with the browser profile, then run autopost session check"
	case services.KindControlNotFound:
		return "the upload page layout may have changed; inspect the diagnostics screenshots"
	case services.KindPlatformReported:
		return "the platform rejected the upload; inspect the error screenshot"
	case services.KindUploadTimeout:
		return "check network throughput and the video size"
	case services.KindSessionUnavailable:
		return "run autopost browser install and check the profile directory"
	default:
		return "check the diagnostics screenshots and daemon log"
	}
}
