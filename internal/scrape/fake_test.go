package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
)

// fakeElement is a scripted driver.Element.
type fakeElement struct {
	text     string
	html     string
	attrs    map[string]string
	textErr  error
	htmlErr  error
	hoverErr error
	clickErr error
	typeErr  error
	pressErr error

	clicks  int
	typed   []string
	pressed []string
}

func (e *fakeElement) Text() (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Attribute(name string) (string, error) {
	if v, ok := e.attrs[name]; ok {
		return v, nil
	}
	return "", driver.NewFault(driver.KindBadAttribute, "attribute "+name,
		fmt.Errorf("attribute %q is absent", name))
}

func (e *fakeElement) OuterHTML() (string, error) {
	if e.htmlErr != nil {
		return "", e.htmlErr
	}
	return e.html, nil
}

func (e *fakeElement) Hover() error {
	return e.hoverErr
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	return nil
}

func (e *fakeElement) TypeText(text string) error {
	if e.typeErr != nil {
		return e.typeErr
	}
	e.typed = append(e.typed, text)
	return nil
}

func (e *fakeElement) Press(key string) error {
	if e.pressErr != nil {
		return e.pressErr
	}
	e.pressed = append(e.pressed, key)
	return nil
}

// fakeSession scripts Find/FindAll responses keyed by locator string.
// Successive FindAll calls for the same locator consume a queue; an exhausted
// queue or a nil entry reports a wait timeout, like an element that never
// appears.
type fakeSession struct {
	findResults  map[string]driver.Element
	findErrs     map[string]error
	findAllQueue map[string][][]driver.Element
	findAllCalls map[string]int
	waitGoneErr  error
	navErr       error

	navigations []string
	closed      int
	closeErr    error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		findResults:  map[string]driver.Element{},
		findErrs:     map[string]error{},
		findAllQueue: map[string][][]driver.Element{},
		findAllCalls: map[string]int{},
	}
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	if s.navErr != nil {
		return s.navErr
	}
	s.navigations = append(s.navigations, url)
	return nil
}

func (s *fakeSession) Find(_ context.Context, loc driver.Locator, _ time.Duration) (driver.Element, error) {
	key := loc.String()
	if _, err := loc.Selector(); err != nil {
		return nil, err
	}
	if err, ok := s.findErrs[key]; ok {
		return nil, err
	}
	if el, ok := s.findResults[key]; ok {
		return el, nil
	}
	return nil, driver.NewFault(driver.KindElementNotFound, "find "+key,
		fmt.Errorf("no scripted element"))
}

func (s *fakeSession) FindAll(_ context.Context, loc driver.Locator, _ time.Duration) ([]driver.Element, error) {
	key := loc.String()
	if _, err := loc.Selector(); err != nil {
		return nil, err
	}
	call := s.findAllCalls[key]
	s.findAllCalls[key]++
	queue := s.findAllQueue[key]
	if call >= len(queue) || queue[call] == nil {
		return nil, driver.NewFault(driver.KindWaitTimeout, "find all "+key,
			fmt.Errorf("timeout exceeded"))
	}
	return queue[call], nil
}

func (s *fakeSession) WaitGone(context.Context, driver.Locator, time.Duration) error {
	return s.waitGoneErr
}

func (s *fakeSession) Close() error {
	s.closed++
	return s.closeErr
}

// cardHTML builds a product card fragment in the storefront's shape.
func cardHTML(name, href, image, category, fullPrice, discountPrice string) string {
	script := ""
	if category != "" {
		script = fmt.Sprintf(`var impression = { category: "%s" };`, category)
	}
	return fmt.Sprintf(`
<div class="product ok-theme">
	<a href="%s">%s</a>
	<img data-src="%s" />
	<script type="text/javascript">%s</script>
	<div class="product-price"><span>%s ₴</span><span>%s ₴</span></div>
</div>`, href, name, image, script, fullPrice, discountPrice)
}

func cardElement(name, category string) *fakeElement {
	return &fakeElement{
		html: cardHTML(name, "/p/"+name, "/img/"+name+".jpg", category, "129,99", "99,99"),
	}
}

// recordingHandler captures log records for assertions on fault logging.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func testConfig(categories []string, pages int) Config {
	return Config{
		BaseURL:        "https://www.okeydostavka.ru",
		Address:        "Москва, Малая Бронная улица, 32",
		Categories:     categories,
		Pages:          pages,
		FindTimeout:    10 * time.Millisecond,
		AddressTimeout: 15 * time.Millisecond,
		SettleTimeout:  time.Millisecond,
		PageDelay:      time.Millisecond,
	}
}
