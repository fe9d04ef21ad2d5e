// Package driver defines the browser capability surface the pipeline runs
// against, plus the playwright-backed implementation. The scrape package only
// sees these interfaces, so tests drive the pipeline with a scripted session.
package driver

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Strategy selects both the lookup mechanism and the wait predicate for a
// locator. All strategies wait for presence except ByClickableID, which waits
// for the element to become clickable.
type Strategy string

const (
	ByXPath       Strategy = "xpath"
	ByClassName   Strategy = "class-name"
	ByCSSSelector Strategy = "css-selector"
	ByID          Strategy = "id"
	ByTagName     Strategy = "tag-name"
	ByClickableID Strategy = "clickable-by-id"
)

// Locator identifies a page element by strategy and target string.
type Locator struct {
	Strategy Strategy
	Target   string
}

// Selector translates the locator into a playwright selector string.
// An unknown strategy is a programming error, reported as an
// invalid-argument fault that is never contained.
func (l Locator) Selector() (string, error) {
	switch l.Strategy {
	case ByXPath:
		return "xpath=" + l.Target, nil
	case ByClassName:
		// A dotted target like "product.ok-theme" becomes a compound
		// class selector matching elements carrying both classes.
		return "." + l.Target, nil
	case ByCSSSelector:
		return l.Target, nil
	case ByID, ByClickableID:
		return "#" + l.Target, nil
	case ByTagName:
		return l.Target, nil
	default:
		return "", NewFault(KindInvalidArgument, "locator",
			fmt.Errorf("unknown locator strategy %q", string(l.Strategy)))
	}
}

// WantsClickable reports whether the locator waits for clickability
// instead of presence.
func (l Locator) WantsClickable() bool {
	return l.Strategy == ByClickableID
}

func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Target
}

// Element is one live page element.
type Element interface {
	// Text returns the rendered text of the element.
	Text() (string, error)
	// Attribute returns the value of the named attribute. A missing
	// attribute is a bad-attribute fault.
	Attribute(name string) (string, error)
	// OuterHTML returns the element's outer HTML, fetched through a
	// script evaluation on the live element.
	OuterHTML() (string, error)
	// Hover moves the pointer onto the element.
	Hover() error
	// Click hovers and clicks the element.
	Click() error
	// TypeText types the given text key by key, driving autocomplete.
	TypeText(text string) error
	// Press sends a single named key event, e.g. "Enter".
	Press(key string) error
}

// Session is one live browser instance. It is owned by exactly one logical
// flow at a time; there is no concurrent interaction.
type Session interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error
	// Find waits for the locator's predicate within the timeout and
	// returns the first matching element.
	Find(ctx context.Context, loc Locator, timeout time.Duration) (Element, error)
	// FindAll waits for at least one match within the timeout and
	// returns all matching elements.
	FindAll(ctx context.Context, loc Locator, timeout time.Duration) ([]Element, error)
	// WaitGone waits for the locator to stop matching, used as an
	// observable post-condition where one exists.
	WaitGone(ctx context.Context, loc Locator, timeout time.Duration) error
	// Close tears the session down. Safe to call once per session.
	Close() error
}

// AbsoluteURL resolves a possibly site-relative href or image path against
// the site root.
func AbsoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return base + ref
}
