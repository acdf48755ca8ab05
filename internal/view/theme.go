// Package view renders the prediction page. Every component is a pure
// function of an explicit RenderConfig and the data it displays.
package view

import "strings"

// Theme selects one of the two page palettes.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps user input to a Theme, returning fallback for anything
// unrecognised.
func ParseTheme(s string, fallback Theme) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return fallback
	}
}

// RenderConfig is the immutable presentation state for one render.
type RenderConfig struct {
	Theme Theme
}

// Other returns the theme a toggle link should switch to.
func (c RenderConfig) Other() Theme {
	if c.Theme == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type palette struct {
	background string
	text       string
	title      string
	footer     string
	summary    string
	summaryFg  string
	tips       string
	tipsFg     string
	mapCard    string
	anaemic    string
	healthy    string
	warning    string
}

var palettes = map[Theme]palette{
	ThemeLight: {
		background: "linear-gradient(120deg, #f8fafc 0%, #ffe5ec 100%)",
		text:       "#222",
		title:      "#B22222",
		footer:     "gray",
		summary:    "#fffbe7",
		summaryFg:  "#222",
		tips:       "#e6ffed",
		tipsFg:     "#222",
		mapCard:    "rgba(226, 245, 255, 0.7)",
		anaemic:    "#B22222",
		healthy:    "#228B22",
		warning:    "#8a6d3b",
	},
	ThemeDark: {
		background: "linear-gradient(120deg, #232526 0%, #414345 100%)",
		text:       "#fff",
		title:      "#FF6F61",
		footer:     "#aaa",
		summary:    "#2d2d2d",
		summaryFg:  "#fff",
		tips:       "#1e2b1e",
		tipsFg:     "#fff",
		mapCard:    "rgba(30, 43, 30, 0.7)",
		anaemic:    "#FF6F61",
		healthy:    "#7CFC00",
		warning:    "#f0ad4e",
	},
}

func (c RenderConfig) palette() palette {
	if p, ok := palettes[c.Theme]; ok {
		return p
	}
	return palettes[ThemeLight]
}
