package driver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorSelector(t *testing.T) {
	tests := []struct {
		name     string
		locator  Locator
		expected string
	}{
		{
			name:     "xpath passes through with prefix",
			locator:  Locator{Strategy: ByXPath, Target: "//button[contains(text(),'Принять')]"},
			expected: "xpath=//button[contains(text(),'Принять')]",
		},
		{
			name:     "class name gets leading dot",
			locator:  Locator{Strategy: ByClassName, Target: "right_arrow"},
			expected: ".right_arrow",
		},
		{
			name:     "dotted class name becomes compound selector",
			locator:  Locator{Strategy: ByClassName, Target: "product.ok-theme"},
			expected: ".product.ok-theme",
		},
		{
			name:     "css selector passes through",
			locator:  Locator{Strategy: ByCSSSelector, Target: "#addressSelectionQuery"},
			expected: "#addressSelectionQuery",
		},
		{
			name:     "id gets hash prefix",
			locator:  Locator{Strategy: ByID, Target: "availableReceiptTimeslot"},
			expected: "#availableReceiptTimeslot",
		},
		{
			name:     "tag name passes through",
			locator:  Locator{Strategy: ByTagName, Target: "img"},
			expected: "img",
		},
		{
			name:     "clickable id gets hash prefix",
			locator:  Locator{Strategy: ByClickableID, Target: "addressSelectionButton"},
			expected: "#addressSelectionButton",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector, err := tt.locator.Selector()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, selector)
		})
	}
}

func TestLocatorSelectorUnknownStrategy(t *testing.T) {
	for _, strategy := range []Strategy{"", "link-text", "delivery", "CSS"} {
		t.Run(string(strategy), func(t *testing.T) {
			_, err := Locator{Strategy: strategy, Target: "x"}.Selector()
			require.Error(t, err)
			assert.Equal(t, KindInvalidArgument, KindOf(err))
			assert.False(t, KindOf(err).Transient())
		})
	}
}

func TestLocatorWantsClickable(t *testing.T) {
	assert.True(t, Locator{Strategy: ByClickableID, Target: "x"}.WantsClickable())
	assert.False(t, Locator{Strategy: ByID, Target: "x"}.WantsClickable())
	assert.False(t, Locator{Strategy: ByXPath, Target: "x"}.WantsClickable())
}

func TestKindTransient(t *testing.T) {
	transient := []Kind{
		KindElementNotFound, KindWaitTimeout, KindStaleElement,
		KindSessionNotCreated, KindInvalidElementState,
		KindNotInteractable, KindDriverFault, KindBadAttribute,
	}
	for _, kind := range transient {
		assert.True(t, kind.Transient(), string(kind))
	}
	assert.False(t, KindInvalidArgument.Transient())
	assert.False(t, KindUnclassified.Transient())
	assert.False(t, Kind("made_up").Transient())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindUnclassified, KindOf(errors.New("boom")))

	fault := NewFault(KindStaleElement, "element text", errors.New("detached"))
	assert.Equal(t, KindStaleElement, KindOf(fault))
	assert.Equal(t, KindStaleElement, KindOf(fmt.Errorf("outer: %w", fault)))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		message  string
		expected Kind
	}{
		{"Timeout 10000ms exceeded", KindWaitTimeout},
		{"element is not attached to the DOM", KindStaleElement},
		{"element is not visible", KindNotInteractable},
		{"element is disabled", KindNotInteractable},
		{"no node found for selector", KindElementNotFound},
		{"element is not editable", KindInvalidElementState},
		{"Target closed", KindDriverFault},
		{"net::ERR_PROXY_CONNECTION_FAILED", KindDriverFault},
		{"something nobody mapped", KindUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			err := classify("op", errors.New(tt.message))
			assert.Equal(t, tt.expected, KindOf(err))
		})
	}
	assert.NoError(t, classify("op", nil))
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://www.okeydostavka.ru"
	assert.Equal(t, base+"/img/p.jpg", AbsoluteURL(base, "/img/p.jpg"))
	assert.Equal(t, base+"/img/p.jpg", AbsoluteURL(base+"/", "/img/p.jpg"))
	assert.Equal(t, base+"/img/p.jpg", AbsoluteURL(base, "img/p.jpg"))
	assert.Equal(t, "https://cdn.example/p.jpg", AbsoluteURL(base, "https://cdn.example/p.jpg"))
	assert.Equal(t, "", AbsoluteURL(base, ""))
}
