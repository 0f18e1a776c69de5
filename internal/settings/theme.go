// Package settings holds the process-wide display settings.
package settings

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("invalid theme %q: must be light or dark", s)
	}
}

var current atomic.Value

func init() {
	current.Store(ThemeLight)
}

// Init sets the starting theme from configuration. An empty value keeps the light theme.
func Init(s string) error {
	if s == "" {
		return nil
	}
	t, err := ParseTheme(s)
	if err != nil {
		return err
	}
	Set(t)
	return nil
}

// Current returns the active theme.
func Current() Theme {
	return current.Load().(Theme)
}

// Set replaces the active theme.
func Set(t Theme) {
	current.Store(t)
}

// Toggle flips between light and dark and returns the new theme.
func Toggle() Theme {
	for {
		old := Current()
		next := ThemeDark
		if old == ThemeDark {
			next = ThemeLight
		}
		if current.CompareAndSwap(old, next) {
			return next
		}
	}
}
