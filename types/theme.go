package types

import (
	"fmt"
	"strings"
)

// Theme selects the colour scheme of the rendered report
type Theme string

const (
	ThemeStandard Theme = "standard"
	ThemeDark     Theme = "dark"
)

// ParseTheme resolves a configured theme name. Only "dark" (any case) selects
// the dark theme; everything else falls back to the standard theme.
func ParseTheme(name string) Theme {
	if strings.EqualFold(strings.TrimSpace(name), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeStandard
}

// View is a section of the rendered report
type View string

const (
	ViewDashboard View = "dashboard"
	ViewTest      View = "test"
	ViewCategory  View = "category"
	ViewException View = "exception"
)

// DefaultViewOrder is the order views appear in when nothing else is configured
var DefaultViewOrder = []View{ViewDashboard, ViewTest, ViewCategory, ViewException}

// ParseViewOrder parses a comma separated list of view names
func ParseViewOrder(s string) ([]View, error) {
	if strings.TrimSpace(s) == "" {
		return append([]View(nil), DefaultViewOrder...), nil
	}

	seen := make(map[View]bool)
	views := make([]View, 0, len(DefaultViewOrder))
	for _, part := range strings.Split(s, ",") {
		v := View(strings.ToLower(strings.TrimSpace(part)))
		switch v {
		case ViewDashboard, ViewTest, ViewCategory, ViewException:
		default:
			return nil, fmt.Errorf("unknown report view %q", part)
		}
		if seen[v] {
			return nil, fmt.Errorf("report view %q listed twice", v)
		}
		seen[v] = true
		views = append(views, v)
	}
	return views, nil
}
