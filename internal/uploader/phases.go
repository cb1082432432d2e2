package uploader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"autopost/internal/browser"
	"autopost/internal/diagnostics"
	"autopost/internal/locator"
	"autopost/internal/logging"
	"autopost/internal/services"
)

func (a *attempt) openSession(ctx context.Context) error {
	session, err := a.u.provider.Open(ctx)
	if err != nil {
		return services.Wrap(services.ErrSessionUnavailable, PhaseSessionInit, "open", "browser session unavailable", err)
	}
	a.session = session
	return nil
}

func (a *attempt) verifyLogin(ctx context.Context) error {
	if err := a.session.Navigate(ctx, a.u.publish.UploadURL); err != nil {
		return services.Wrap(services.ErrInternal, PhaseLoginVerify, "navigate", "open upload page", err)
	}
	if err := a.u.settle(ctx); err != nil {
		return services.Wrap(services.ErrInternal, PhaseLoginVerify, "settle", "", err)
	}

	url := a.session.URL()
	if _, ok := containsAny(url, a.u.publish.LoginURLPatterns); ok {
		a.capture(ctx, diagnostics.LabelLoginCheck, a.displayName()+" redirected to login")
		return services.Wrap(services.ErrSessionExpired, PhaseLoginVerify, "check", "redirected to login: "+url, nil)
	}
	if m, ok := a.u.locator.Find(a.session.Scopes(), loginIndicatorControl); ok {
		a.logger.Debug("login verified by indicator",
			logging.String("selector", m.Strategy.Selector()),
			logging.String("scope", m.Scope),
		)
		return nil
	}
	if pattern, ok := containsAny(url, a.u.publish.SurfaceURLPatterns); ok {
		a.logger.Debug("login verified by url", logging.String("pattern", pattern))
		return nil
	}
	return services.Wrap(services.ErrSessionExpired, PhaseLoginVerify, "check", "publish surface not detected at "+url, nil)
}

func (a *attempt) selectFile(ctx context.Context) error {
	match, ok := a.u.locator.Find(a.session.Scopes(), fileInputControl)
	if !ok {
		a.logger.Info("file input not found, reloading upload page")
		if err := a.session.Reload(ctx); err != nil {
			if services.IsCanceled(err) {
				return services.Wrap(services.ErrInternal, PhaseFileSelect, "reload", "", err)
			}
			a.logger.Debug("reload failed", logging.Error(err))
		}
		if err := a.u.settle(ctx); err != nil {
			return services.Wrap(services.ErrInternal, PhaseFileSelect, "settle", "", err)
		}
		match, ok = a.u.locator.Find(a.session.Scopes(), fileInputControl)
	}
	if !ok {
		if area, found := a.u.locator.FindVisible(a.session.Scopes(), uploadAreaControl); found {
			a.logger.Info("clicking upload area", logging.String("selector", area.Strategy.Selector()))
			if err := area.Element.Click(browser.ClickOptions{Timeout: a.u.timings.ClickTimeout}); err != nil {
				a.logger.Debug("upload area click failed", logging.Error(err))
			}
			if err := sleepContext(ctx, a.u.timings.PopupPause); err != nil {
				return services.Wrap(services.ErrInternal, PhaseFileSelect, "wait", "", err)
			}
			match, ok = a.u.locator.Find(a.session.Scopes(), fileInputControl)
		}
	}
	if !ok {
		return services.Wrap(services.ErrControlNotFound, PhaseFileSelect, "locate", "upload control not found", nil)
	}

	a.logger.Info("file input found",
		logging.String("selector", match.Strategy.Selector()),
		logging.String("scope", match.Scope),
	)
	if err := match.Element.SetInputFiles(a.req.FilePath); err != nil {
		return services.Wrap(services.ErrInternal, PhaseFileSelect, "set input files", "", err)
	}
	return nil
}

func (a *attempt) waitForUpload(ctx context.Context) error {
	t := a.u.timings
	started := time.Now()
	deadline := started.Add(t.UploadTimeout)
	for {
		scopes := a.session.Scopes()
		if m, ok := a.u.locator.FindVisible(scopes, captionControl); ok {
			a.logger.Info("upload ready", logging.String("signal", m.Strategy.Selector()), logging.Duration("elapsed", time.Since(started)))
			return nil
		}
		if m, ok := a.u.locator.FindVisible(scopes, postButtonControl); ok {
			a.logger.Info("upload ready", logging.String("signal", m.Strategy.Selector()), logging.Duration("elapsed", time.Since(started)))
			return nil
		}
		if time.Since(started) >= t.UploadErrorGrace {
			if text, found := a.platformError(scopes); found {
				return services.Wrap(services.ErrPlatformReported, PhaseUploadWait, "poll", text, nil)
			}
		}
		if !time.Now().Before(deadline) {
			return services.Wrap(services.ErrUploadTimeout, PhaseUploadWait, "poll", fmt.Sprintf("upload not ready after %s", t.UploadTimeout), nil)
		}
		if err := sleepContext(ctx, t.UploadPoll); err != nil {
			return services.Wrap(services.ErrInternal, PhaseUploadWait, "poll", "", err)
		}
	}
}

func (a *attempt) dismissPopups(ctx context.Context) error {
	if m, ok := a.u.locator.FindVisible(a.session.Scopes(), modalButtonControl); ok {
		if err := m.Element.Click(browser.ClickOptions{Force: true, Timeout: a.u.timings.ClickTimeout}); err != nil {
			a.logger.Debug("modal dismiss failed", logging.Error(err))
		} else {
			a.logger.Info("modal dismissed", logging.String("selector", m.Strategy.Selector()))
		}
	}
	if err := a.session.PressKey("Escape"); err != nil {
		a.logger.Debug("escape failed", logging.Error(err))
	}
	if err := sleepContext(ctx, a.u.timings.PopupPause); err != nil {
		return services.Wrap(services.ErrInternal, PhasePopupDismiss, "wait", "", err)
	}
	return nil
}

func (a *attempt) enterCaption(ctx context.Context) error {
	caption := norm.NFC.String(strings.TrimSpace(a.req.Caption))
	if caption == "" {
		a.logger.Info("no caption to enter")
		return nil
	}
	m, ok := a.u.locator.FindVisible(a.session.Scopes(), captionControl)
	if !ok {
		logging.WarnWithContext(a.logger, "caption control not found", "caption_entry",
			logging.String(logging.FieldErrorHint, "update the caption selectors if the layout changed"),
			logging.String(logging.FieldImpact, "video posted without caption"),
		)
		return nil
	}
	if err := m.Element.Click(browser.ClickOptions{Timeout: a.u.timings.ClickTimeout}); err != nil {
		logging.WarnWithContext(a.logger, "caption control not clickable", "caption_entry",
			logging.Error(err),
			logging.String(logging.FieldImpact, "video posted without caption"),
		)
		return nil
	}
	if err := a.session.PressKey("Control+A"); err != nil {
		a.logger.Debug("select all failed", logging.Error(err))
	}
	for _, r := range caption {
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrInternal, PhaseCaptionEntry, "type", "", err)
		}
		delay := a.u.between(a.u.timings.TypeDelayMin, a.u.timings.TypeDelayMax)
		if err := a.session.TypeText(string(r), delay); err != nil {
			return services.Wrap(services.ErrInternal, PhaseCaptionEntry, "type", "", err)
		}
	}
	a.logger.Info("caption entered", logging.Int("runes", len([]rune(caption))))
	return nil
}

func (a *attempt) reviewSubmit(_ context.Context) error {
	scopes := a.session.Scopes()
	for _, m := range a.u.locator.All(scopes, postButtonControl) {
		if !usable(m.Element) {
			continue
		}
		box, err := m.Element.BoundingBox()
		if err != nil || box == nil {
			continue
		}
		if box.X > a.u.publish.SubmitMinX {
			a.submit = m.Element
			a.logger.Info("post button selected",
				logging.String("selector", m.Strategy.Selector()),
				logging.String("scope", m.Scope),
				logging.Float64("x", box.X),
			)
			return nil
		}
	}

	label := strings.ToLower(a.u.publish.SubmitLabel)
	var preferred, plain, nav []locator.Match
	for _, m := range a.u.locator.All(scopes, submitFallbackControl) {
		text, err := m.Element.Text()
		if err != nil {
			continue
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if label == "" || !strings.Contains(text, label) || !usable(m.Element) {
			continue
		}
		switch {
		case matchesAny(text, a.u.publish.NavLabels):
			nav = append(nav, m)
		case matchesAny(text, a.u.publish.PreferredLabels):
			preferred = append(preferred, m)
		default:
			plain = append(plain, m)
		}
	}
	for _, group := range [][]locator.Match{preferred, plain, nav} {
		if len(group) == 0 {
			continue
		}
		a.submit = group[0].Element
		text, _ := group[0].Element.Text()
		a.logger.Info("post button selected by label", logging.String("text", strings.TrimSpace(text)), logging.String("scope", group[0].Scope))
		return nil
	}
	return services.Wrap(services.ErrControlNotFound, PhaseSubmitReview, "locate", "post button not found", nil)
}

func (a *attempt) clickPost(_ context.Context) error {
	if err := a.clickSubmit(); err != nil {
		return err
	}
	a.posted = true
	return nil
}

// clickSubmit activates the selected submit control, escalating through
// progressively less realistic click methods.
func (a *attempt) clickSubmit() error {
	el := a.submit
	if err := el.ScrollIntoView(); err != nil {
		a.logger.Debug("scroll into view failed", logging.Error(err))
	}
	strategies := []struct {
		name string
		run  func() error
	}{
		{"pointer", func() error {
			box, err := el.BoundingBox()
			if err != nil {
				return err
			}
			if box == nil {
				return errors.New("no bounding box")
			}
			x, y := box.Center()
			x += a.u.jitter(min(3, box.Width/4))
			y += a.u.jitter(min(3, box.Height/4))
			return a.session.MouseClick(x, y)
		}},
		{"element", func() error { return el.Click(browser.ClickOptions{Timeout: a.u.timings.ClickTimeout}) }},
		{"script", el.ScriptClick},
		{"dispatch", el.DispatchClick},
		{"force", func() error { return el.Click(browser.ClickOptions{Force: true, Timeout: a.u.timings.ClickTimeout}) }},
	}

	var errs []error
	for _, s := range strategies {
		if err := s.run(); err != nil {
			a.logger.Debug("click strategy failed", logging.String("strategy", s.name), logging.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		a.logger.Info("post button clicked", logging.String("strategy", s.name))
		return nil
	}
	return services.Wrap(services.ErrClickExhausted, a.phase, "click", "all click strategies failed", errors.Join(errs...))
}

func (a *attempt) waitForConfirmation(ctx context.Context) error {
	t := a.u.timings
	started := time.Now()
	deadline := started.Add(t.ConfirmTimeout)
	reclicked := false
	for {
		url := a.session.URL()
		if pattern, ok := containsAny(url, a.u.publish.SuccessURLPatterns); ok {
			a.confirmed = "navigated to " + pattern
			return nil
		}
		if body, err := a.session.BodyText(); err == nil {
			if text, ok := containsAny(body, a.u.publish.SuccessTexts); ok {
				a.confirmed = "confirmed: " + text
				return nil
			}
		}
		scopes := a.session.Scopes()
		if text, found := a.platformError(scopes); found {
			return services.Wrap(services.ErrPlatformReported, PhaseConfirmWait, "poll", text, nil)
		}
		if !reclicked && time.Since(started) >= t.ConfirmGrace && a.submitStillActive(scopes) {
			reclicked = true
			logging.WarnWithContext(a.logger, "post button still active, clicking again", "confirm_reclick",
				logging.String(logging.FieldImpact, "one extra submit attempt"),
			)
			if err := a.clickSubmit(); err != nil {
				a.logger.Debug("re-click failed", logging.Error(err))
			}
		}
		if !time.Now().Before(deadline) {
			a.divert(fmt.Sprintf("no signal within %s at %s", t.ConfirmTimeout, url))
			return nil
		}
		if err := sleepContext(ctx, t.ConfirmPoll); err != nil {
			if services.IsCanceled(err) {
				a.divert("shutdown during confirmation")
				return nil
			}
			return services.Wrap(services.ErrInternal, PhaseConfirmWait, "poll", "", err)
		}
	}
}

// submitStillActive reports whether the submit control is still clickable and
// no upload progress is showing.
func (a *attempt) submitStillActive(scopes []browser.Scope) bool {
	if a.submit == nil || !usable(a.submit) {
		return false
	}
	_, busy := a.u.locator.FindVisible(scopes, progressControl)
	return !busy
}

// platformError returns the text of the first visible error indicator that
// contains a failure keyword.
func (a *attempt) platformError(scopes []browser.Scope) (string, bool) {
	for _, m := range a.u.locator.All(scopes, errorIndicatorControl) {
		if visible, err := m.Element.IsVisible(); err != nil || !visible {
			continue
		}
		text, err := m.Element.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) <= 3 {
			continue
		}
		if _, ok := containsAny(text, a.u.publish.FailureKeywords); ok {
			return text, true
		}
	}
	return "", false
}

func usable(el browser.Element) bool {
	visible, err := el.IsVisible()
	if err != nil || !visible {
		return false
	}
	enabled, err := el.IsEnabled()
	return err == nil && enabled
}

// containsAny returns the first needle found in haystack, case-insensitively.
func containsAny(haystack string, needles []string) (string, bool) {
	lowered := strings.ToLower(haystack)
	for _, needle := range needles {
		n := strings.ToLower(strings.TrimSpace(needle))
		if n != "" && strings.Contains(lowered, n) {
			return needle, true
		}
	}
	return "", false
}

func matchesAny(text string, needles []string) bool {
	_, ok := containsAny(text, needles)
	return ok
}
