package uploader

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autopost/internal/browser"
	"autopost/internal/browser/browsertest"
	"autopost/internal/config"
	"autopost/internal/diagnostics"
	"autopost/internal/locator"
	"autopost/internal/notifications"
	"autopost/internal/services"
	"autopost/internal/testsupport"
)

const studioContentURL = "https://www.tiktok.com/tiktokstudio/content"

func sel(c locator.Control, i int) string {
	return c.Strategies[i].Selector()
}

func fastTimings() Timings {
	return Timings{
		UploadTimeout:  200 * time.Millisecond,
		UploadPoll:     5 * time.Millisecond,
		ConfirmTimeout: 100 * time.Millisecond,
		ConfirmPoll:    5 * time.Millisecond,
		ClickTimeout:   time.Second,
	}
}

// surface is a scripted upload page: attaching a file reveals the caption
// editor and post button, and clicking post navigates to the content list.
type surface struct {
	cfg       *config.Config
	page      *browsertest.Page
	provider  *browsertest.Provider
	fileInput *browsertest.Element
	caption   *browsertest.Element
	post      *browsertest.Element
	video     string
}

func newSurface(t *testing.T) *surface {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	page := browsertest.NewPage()
	s := &surface{
		cfg:       cfg,
		page:      page,
		provider:  browsertest.NewProvider(page),
		fileInput: &browsertest.Element{},
		caption:   browsertest.NewElement(""),
		post:      browsertest.NewElement("Post").WithBox(600, 500, 120, 40),
		video:     filepath.Join(cfg.Paths.VideosDir, "clip.mp4"),
	}
	testsupport.WriteFile(t, s.video, 16)

	page.Main().Add(sel(fileInputControl, 0), s.fileInput)
	s.fileInput.OnSetFiles = func(string) {
		page.Main().Add(sel(captionControl, 0), s.caption)
		page.Main().Add(sel(postButtonControl, 2), s.post)
	}
	s.post.OnClick = func() { page.SetURL(studioContentURL) }
	return s
}

func (s *surface) uploader(opts ...Option) *Uploader {
	reporter := diagnostics.NewReporter(s.cfg, notifications.NewService(s.cfg), nil)
	opts = append([]Option{WithTimings(fastTimings()), WithSeed(1)}, opts...)
	return New(s.cfg, s.provider, reporter, nil, opts...)
}

func (s *surface) publish(t *testing.T, caption string) Result {
	t.Helper()
	return s.uploader().Publish(context.Background(), Request{ItemID: 7, FilePath: s.video, Caption: caption})
}

func artifactLabels(paths []string) []string {
	labels := make([]string, 0, len(paths))
	for _, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		parts := strings.SplitN(base, "-", 4)
		labels = append(labels, parts[len(parts)-1])
	}
	return labels
}

func TestPublishSuccess(t *testing.T) {
	s := newSurface(t)
	result := s.publish(t, "Cafe\u0301 #fyp")

	if !result.Success || result.Diverted {
		t.Fatalf("expected confirmed success, got %+v", result)
	}
	if result.Kind != services.KindNone {
		t.Fatalf("expected empty kind, got %q", result.Kind)
	}
	if result.AttemptID == "" {
		t.Fatal("expected attempt id")
	}
	if files := s.fileInput.Files(); len(files) != 1 || files[0] != s.video {
		t.Fatalf("unexpected attached files %v", files)
	}
	if got := s.page.Typed(); got != "Caf\u00e9 #fyp" {
		t.Fatalf("expected NFC caption, got %q", got)
	}
	pressed := s.page.Pressed()
	if !slices.Contains(pressed, "Escape") || !slices.Contains(pressed, "Control+A") {
		t.Fatalf("expected escape and select-all, got %v", pressed)
	}
	if clicks := s.post.Clicks(); len(clicks) != 1 || clicks[0] != "pointer" {
		t.Fatalf("expected a single pointer click, got %v", clicks)
	}
	if !s.page.Closed() {
		t.Fatal("session must be closed")
	}

	want := []string{"login_check", "file_select", "upload_ready", "popup_dismiss", "caption", "before_post", "after_post", "final"}
	if got := artifactLabels(result.Artifacts); !slices.Equal(got, want) {
		t.Fatalf("artifact labels = %v, want %v", got, want)
	}
	for _, p := range result.Artifacts {
		if filepath.Dir(p) != s.cfg.Paths.DiagnosticsDir {
			t.Fatalf("artifact outside diagnostics dir: %s", p)
		}
	}
}

func TestPublishSessionExpiredOnLoginRedirect(t *testing.T) {
	s := newSurface(t)
	s.page.OnNavigate = func(p *browsertest.Page, _ string) {
		p.SetURL("https://www.tiktok.com/login?redirect_url=upload")
	}
	result := s.publish(t, "hello")

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Kind != services.KindSessionExpired || result.Phase != PhaseLoginVerify {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(s.fileInput.Files()) != 0 {
		t.Fatal("file must not be attached when logged out")
	}
	if !s.page.Closed() {
		t.Fatal("session must be closed")
	}
	labels := artifactLabels(result.Artifacts)
	if !slices.Contains(labels, "login_check") || labels[len(labels)-1] != "error" {
		t.Fatalf("unexpected artifacts %v", labels)
	}
}

func TestPublishSessionExpiredWhenSurfaceMissing(t *testing.T) {
	s := newSurface(t)
	s.page.Main().Remove(sel(fileInputControl, 0))
	s.page.OnNavigate = func(p *browsertest.Page, _ string) {
		p.SetURL("https://www.tiktok.com/foryou")
	}
	result := s.publish(t, "")
	if result.Kind != services.KindSessionExpired || !strings.Contains(result.Message, "publish surface not detected") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPublishControlNotFoundAfterReload(t *testing.T) {
	s := newSurface(t)
	s.page.Main().Remove(sel(fileInputControl, 0))
	var reloads atomic.Int32
	s.page.OnReload = func(*browsertest.Page) { reloads.Add(1) }
	area := browsertest.NewElement("Select video")
	s.page.Main().Add(sel(uploadAreaControl, 5), area)

	result := s.publish(t, "")
	if result.Kind != services.KindControlNotFound || result.Phase != PhaseFileSelect {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Message, "upload control not found") {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if reloads.Load() != 1 {
		t.Fatalf("expected exactly one reload, got %d", reloads.Load())
	}
	if clicks := area.Clicks(); len(clicks) != 1 {
		t.Fatalf("expected upload area click, got %v", clicks)
	}
	if !s.page.Closed() {
		t.Fatal("session must be closed")
	}
}

func TestPublishFindsFileInputAfterReload(t *testing.T) {
	s := newSurface(t)
	s.page.Main().Remove(sel(fileInputControl, 0))
	frame := s.page.AddFrame("upload-iframe")
	s.page.OnReload = func(*browsertest.Page) {
		frame.Add(sel(fileInputControl, 2), s.fileInput)
	}
	result := s.publish(t, "")
	if !result.Success {
		t.Fatalf("expected success after reload, got %+v", result)
	}
	if len(s.fileInput.Files()) != 1 {
		t.Fatal("expected file attached in frame")
	}
}

func TestPublishPlatformErrorDuringUpload(t *testing.T) {
	s := newSurface(t)
	s.fileInput.OnSetFiles = func(string) {
		s.page.Main().Add(sel(errorIndicatorControl, 0), browsertest.NewElement("Upload failed: video is too long"))
	}
	result := s.publish(t, "")
	if result.Kind != services.KindPlatformReported || result.Phase != PhaseUploadWait {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Message, "video is too long") {
		t.Fatalf("platform text missing from message %q", result.Message)
	}
}

func TestPublishIgnoresErrorIndicatorWithoutKeyword(t *testing.T) {
	s := newSurface(t)
	prev := s.fileInput.OnSetFiles
	s.fileInput.OnSetFiles = func(path string) {
		s.page.Main().Add(sel(errorIndicatorControl, 0), browsertest.NewElement("Checking content"))
		prev(path)
	}
	if result := s.publish(t, ""); !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestPublishUploadTimeout(t *testing.T) {
	s := newSurface(t)
	s.fileInput.OnSetFiles = nil
	result := s.publish(t, "")
	if result.Kind != services.KindUploadTimeout {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPublishDivertedSoftSuccess(t *testing.T) {
	s := newSurface(t)
	s.post.OnClick = nil
	result := s.publish(t, "")
	if !result.Success || !result.Diverted {
		t.Fatalf("expected diverted success, got %+v", result)
	}
	if result.Message != DivertedMessage {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if clicks := s.post.Clicks(); len(clicks) != 2 {
		t.Fatalf("expected one re-click during confirmation, got %v", clicks)
	}
}

func TestPublishProgressBlocksConfirmReclick(t *testing.T) {
	s := newSurface(t)
	progress := browsertest.NewElement("Uploading 40%")
	s.post.OnClick = func() { s.page.Main().Add(sel(progressControl, 0), progress) }
	result := s.publish(t, "")
	if !result.Success || !result.Diverted {
		t.Fatalf("expected diverted success, got %+v", result)
	}
	if clicks := s.post.Clicks(); len(clicks) != 1 {
		t.Fatalf("visible progress must prevent the re-click, got %v", clicks)
	}
}

func TestPublishDismissesModalBeforeCaption(t *testing.T) {
	s := newSurface(t)
	modal := browsertest.NewElement("Turn on")
	typedAtDismiss := "unset"
	modal.OnClick = func() { typedAtDismiss = s.page.Typed() }
	reveal := s.fileInput.OnSetFiles
	s.fileInput.OnSetFiles = func(path string) {
		reveal(path)
		s.page.Main().Add(sel(modalButtonControl, 2), modal)
	}

	result := s.publish(t, "hello")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if clicks := modal.Clicks(); !slices.Equal(clicks, []string{"force"}) {
		t.Fatalf("expected one forced modal click, got %v", clicks)
	}
	if typedAtDismiss != "" {
		t.Fatalf("modal must be dismissed before typing, caption was %q", typedAtDismiss)
	}
	if got := s.page.Typed(); got != "hello" {
		t.Fatalf("unexpected caption %q", got)
	}
}

func TestPublishConfirmsBySuccessText(t *testing.T) {
	s := newSurface(t)
	s.post.OnClick = func() { s.page.SetBody("Your video is being uploaded to TikTok") }
	result := s.publish(t, "")
	if !result.Success || result.Diverted {
		t.Fatalf("expected confirmed success, got %+v", result)
	}
	if !strings.Contains(result.Message, "Your video is being uploaded") {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestPublishClickFallbacks(t *testing.T) {
	s := newSurface(t)
	s.page.MouseErr = errors.New("pointer intercepted")
	s.post.ClickErr = errors.New("element detached")
	result := s.publish(t, "")
	if !result.Success {
		t.Fatalf("expected success via script click, got %+v", result)
	}
	if clicks := s.post.Clicks(); len(clicks) != 1 || clicks[0] != "script" {
		t.Fatalf("expected script click, got %v", clicks)
	}
}

func TestPublishClickExhausted(t *testing.T) {
	s := newSurface(t)
	s.page.MouseErr = errors.New("pointer intercepted")
	s.post.ClickErr = errors.New("element detached")
	s.post.ScriptErr = errors.New("script blocked")
	s.post.DispatchErr = errors.New("dispatch blocked")
	s.post.ForceClickErr = errors.New("force blocked")
	result := s.publish(t, "")
	if result.Kind != services.KindClickExhausted || result.Phase != PhasePostClick {
		t.Fatalf("unexpected result %+v", result)
	}
	for _, name := range []string{"pointer", "element", "script", "dispatch", "force"} {
		if !strings.Contains(result.Message, name) {
			t.Fatalf("message should mention %s strategy: %q", name, result.Message)
		}
	}
}

func TestPublishSubmitFallbackPrefersNonNavigationLabel(t *testing.T) {
	s := newSurface(t)
	leftNav := browsertest.NewElement("Post").WithBox(40, 300, 80, 30)
	navButton := browsertest.NewElement("Postingan").WithBox(700, 100, 80, 30)
	plain := browsertest.NewElement("Post").WithBox(700, 500, 80, 30)
	plain.OnClick = func() { s.page.SetURL(studioContentURL) }
	s.fileInput.OnSetFiles = func(string) {
		s.page.Main().Add(sel(captionControl, 0), s.caption)
		s.page.Main().Add(sel(postButtonControl, 2), leftNav)
		s.page.Main().Add(sel(submitFallbackControl, 0), navButton, plain)
	}

	result := s.publish(t, "")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(plain.Clicks()) == 0 {
		t.Fatal("expected the labelled submit button to be clicked")
	}
	if len(navButton.Clicks()) != 0 || len(leftNav.Clicks()) != 0 {
		t.Fatal("navigation controls must not be clicked")
	}
}

func TestPublishPostButtonNotFound(t *testing.T) {
	s := newSurface(t)
	s.fileInput.OnSetFiles = func(string) {
		s.page.Main().Add(sel(captionControl, 0), s.caption)
	}
	result := s.publish(t, "")
	if result.Kind != services.KindControlNotFound || result.Phase != PhaseSubmitReview {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPublishWithoutCaptionControl(t *testing.T) {
	s := newSurface(t)
	s.fileInput.OnSetFiles = func(string) {
		s.page.Main().Add(sel(postButtonControl, 2), s.post)
	}
	result := s.publish(t, "caption that has nowhere to go")
	if !result.Success {
		t.Fatalf("missing caption control must not fail the attempt: %+v", result)
	}
	if s.page.Typed() != "" {
		t.Fatalf("nothing should be typed, got %q", s.page.Typed())
	}
}

func TestPublishConvertsPanics(t *testing.T) {
	s := newSurface(t)
	s.fileInput.OnSetFiles = func(string) { panic("boom") }
	result := s.publish(t, "")
	if result.Success || result.Kind != services.KindInternal {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Message, "panic: boom") {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if !s.page.Closed() {
		t.Fatal("session must be closed after panic")
	}
}

func TestPublishSessionUnavailable(t *testing.T) {
	s := newSurface(t)
	s.provider.FailWith(errors.New("chromium missing"))
	result := s.publish(t, "")
	if result.Kind != services.KindSessionUnavailable || len(result.Artifacts) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPublishCanceledContext(t *testing.T) {
	s := newSurface(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := s.uploader().Publish(ctx, Request{FilePath: s.video})
	if result.Kind != services.KindCanceled {
		t.Fatalf("expected canceled kind, got %+v", result)
	}
}

func TestPublishCanceledAfterPostClickIsDiverted(t *testing.T) {
	s := newSurface(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.post.OnClick = cancel

	result := s.uploader().Publish(ctx, Request{ItemID: 7, FilePath: s.video})
	if !result.Success || !result.Diverted || result.Kind != services.KindNone {
		t.Fatalf("expected diverted success once the post click went out, got %+v", result)
	}
	if clicks := s.post.Clicks(); len(clicks) != 1 {
		t.Fatalf("expected a single post click, got %v", clicks)
	}
	if !s.page.Closed() {
		t.Fatal("session must be closed")
	}
}

func TestCheckSessionWritesCookieBackup(t *testing.T) {
	s := newSurface(t)
	s.page.SetCookies([]browser.Cookie{{Name: "sessionid", Value: "abc", Domain: ".tiktok.com", Path: "/"}})
	if err := s.uploader().CheckSession(context.Background()); err != nil {
		t.Fatalf("CheckSession: %v", err)
	}
	cookies, err := browser.LoadCookies(s.cfg.Paths.CookiesPath)
	if err != nil {
		t.Fatalf("LoadCookies: %v", err)
	}
	if len(cookies) != 1 || cookies[0].Name != "sessionid" {
		t.Fatalf("unexpected cookie backup %+v", cookies)
	}
	if !s.page.Closed() {
		t.Fatal("session must be closed")
	}
}

func TestCheckSessionReportsExpiry(t *testing.T) {
	s := newSurface(t)
	s.page.OnNavigate = func(p *browsertest.Page, _ string) { p.SetURL("https://www.tiktok.com/login") }
	err := s.uploader().CheckSession(context.Background())
	if !errors.Is(err, services.ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
}

func TestContainsAny(t *testing.T) {
	if got, ok := containsAny("https://www.TikTok.com/@me", []string{"manage", "/@"}); !ok || got != "/@" {
		t.Fatalf("containsAny = %q %v", got, ok)
	}
	if _, ok := containsAny("anything", []string{"", "  "}); ok {
		t.Fatal("blank needles must not match")
	}
}
