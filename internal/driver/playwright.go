package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures a browser session.
type Options struct {
	Headless      bool
	UserAgent     string
	NavTimeout    time.Duration
	ProxyServer   string
	ProxyUsername string
	ProxyPassword string
}

// DefaultOptions returns the launch configuration used when nothing is
// overridden.
func DefaultOptions() *Options {
	return &Options{
		Headless:   true,
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		NavTimeout: 30 * time.Second,
	}
}

// PlaywrightSession drives one chromium instance through playwright.
type PlaywrightSession struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	page       playwright.Page
	opts       *Options
	logger     *slog.Logger
	closeOnce  sync.Once
	closeErr   error
}

// Launch starts playwright, launches chromium with the anti-automation and
// certificate/notification settings, and opens one page. A failure here is a
// session-not-created fault; the caller may retry or abort gracefully.
func Launch(opts *Options, logger *slog.Logger) (*PlaywrightSession, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "driver")

	pw, err := playwright.Run()
	if err != nil {
		return nil, NewFault(KindSessionNotCreated, "session.launch",
			fmt.Errorf("start playwright: %w", err))
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--ignore-certificate-errors",
			"--disable-notifications",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--user-agent=" + opts.UserAgent,
		},
	}
	if opts.ProxyServer != "" {
		proxy := &playwright.Proxy{Server: opts.ProxyServer}
		if opts.ProxyUsername != "" {
			proxy.Username = playwright.String(opts.ProxyUsername)
			proxy.Password = playwright.String(opts.ProxyPassword)
		}
		launchOpts.Proxy = proxy
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, NewFault(KindSessionNotCreated, "session.launch",
			fmt.Errorf("launch chromium: %w", err))
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		IgnoreHttpsErrors: playwright.Bool(true),
		// No permissions granted: geolocation and notification prompts
		// never reach the page.
		Permissions: []string{},
		Viewport:    &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, NewFault(KindSessionNotCreated, "session.launch",
			fmt.Errorf("create browser context: %w", err))
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return nil, NewFault(KindSessionNotCreated, "session.launch",
			fmt.Errorf("open page: %w", err))
	}

	logger.Info("session created", "headless", opts.Headless, "proxy", opts.ProxyServer != "")
	return &PlaywrightSession{
		pw:         pw,
		browser:    browser,
		browserCtx: browserCtx,
		page:       page,
		opts:       opts,
		logger:     logger,
	}, nil
}

func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.opts.NavTimeout.Milliseconds())),
	})
	if err != nil {
		return classify("navigate", err)
	}
	s.logger.Debug("navigated", "url", url)
	return nil
}

func (s *PlaywrightSession) Find(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	selector, err := loc.Selector()
	if err != nil {
		return nil, err
	}
	target := s.page.Locator(selector).First()
	state := playwright.WaitForSelectorStateAttached
	if loc.WantsClickable() {
		state = playwright.WaitForSelectorStateVisible
	}
	if err := target.WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return nil, classify("find "+loc.String(), err)
	}
	return &playwrightElement{loc: target, timeout: timeout}, nil
}

func (s *PlaywrightSession) FindAll(ctx context.Context, loc Locator, timeout time.Duration) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	selector, err := loc.Selector()
	if err != nil {
		return nil, err
	}
	matches := s.page.Locator(selector)
	if err := matches.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return nil, classify("find all "+loc.String(), err)
	}
	all, err := matches.All()
	if err != nil {
		return nil, classify("find all "+loc.String(), err)
	}
	elements := make([]Element, 0, len(all))
	for _, m := range all {
		elements = append(elements, &playwrightElement{loc: m, timeout: timeout})
	}
	return elements, nil
}

func (s *PlaywrightSession) WaitGone(ctx context.Context, loc Locator, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	selector, err := loc.Selector()
	if err != nil {
		return err
	}
	if err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateDetached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return classify("wait gone "+loc.String(), err)
	}
	return nil
}

// Close tears down page, context, browser and the playwright process. It is
// idempotent so the run can close exactly once on every exit path.
func (s *PlaywrightSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []string
		if s.browserCtx != nil {
			if err := s.browserCtx.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("close context: %v", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("close browser: %v", err))
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, fmt.Sprintf("stop playwright: %v", err))
			}
		}
		if len(errs) > 0 {
			s.closeErr = NewFault(KindDriverFault, "session.close",
				fmt.Errorf("%s", strings.Join(errs, "; ")))
			return
		}
		s.logger.Info("session closed")
	})
	return s.closeErr
}

type playwrightElement struct {
	loc     playwright.Locator
	timeout time.Duration
}

func (e *playwrightElement) millis() *float64 {
	return playwright.Float(float64(e.timeout.Milliseconds()))
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: e.millis()})
	if err != nil {
		return "", classify("element text", err)
	}
	return text, nil
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	value, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: e.millis()})
	if err != nil {
		return "", classify("attribute "+name, err)
	}
	if value == "" {
		return "", NewFault(KindBadAttribute, "attribute "+name,
			fmt.Errorf("attribute %q is absent", name))
	}
	return value, nil
}

func (e *playwrightElement) OuterHTML() (string, error) {
	result, err := e.loc.Evaluate("el => el.outerHTML", nil)
	if err != nil {
		return "", classify("element html", err)
	}
	html, ok := result.(string)
	if !ok {
		return "", NewFault(KindBadAttribute, "element html",
			fmt.Errorf("outerHTML evaluated to %T", result))
	}
	return html, nil
}

func (e *playwrightElement) Hover() error {
	if err := e.loc.Hover(playwright.LocatorHoverOptions{Timeout: e.millis()}); err != nil {
		return classify("hover", err)
	}
	return nil
}

func (e *playwrightElement) Click() error {
	// Hover first, matching the move-then-click action chain the site's
	// hover-rendered panels depend on.
	if err := e.loc.Hover(playwright.LocatorHoverOptions{Timeout: e.millis()}); err != nil {
		return classify("click", err)
	}
	if err := e.loc.Click(playwright.LocatorClickOptions{Timeout: e.millis()}); err != nil {
		return classify("click", err)
	}
	return nil
}

func (e *playwrightElement) TypeText(text string) error {
	err := e.loc.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Timeout: e.millis(),
	})
	if err != nil {
		return classify("type", err)
	}
	return nil
}

func (e *playwrightElement) Press(key string) error {
	if err := e.loc.Press(key, playwright.LocatorPressOptions{Timeout: e.millis()}); err != nil {
		return classify("press "+key, err)
	}
	return nil
}

// classify maps raw playwright failures onto the closed fault set. Messages
// the mapping does not recognise stay unclassified and abort the run.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") && strings.Contains(msg, "exceeded"):
		return NewFault(KindWaitTimeout, op, err)
	case strings.Contains(msg, "not attached") || strings.Contains(msg, "stale"):
		return NewFault(KindStaleElement, op, err)
	case strings.Contains(msg, "not visible") ||
		strings.Contains(msg, "disabled") ||
		strings.Contains(msg, "intercepts pointer events"):
		return NewFault(KindNotInteractable, op, err)
	case strings.Contains(msg, "no node found") || strings.Contains(msg, "not found"):
		return NewFault(KindElementNotFound, op, err)
	case strings.Contains(msg, "element state") || strings.Contains(msg, "not editable"):
		return NewFault(KindInvalidElementState, op, err)
	case strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "browser has been closed") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "net::"):
		return NewFault(KindDriverFault, op, err)
	}
	return NewFault(KindUnclassified, op, err)
}
