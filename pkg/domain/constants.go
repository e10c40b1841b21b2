package domain

// Viewport is the screen mode the editor is driven in.
type Viewport string

const (
	ViewportDesktop Viewport = "desktop" // Standard layout
	ViewportMobile  Viewport = "mobile"  // Compact layout
)

// IsCompact reports whether the viewport uses the compact (mobile) layout.
func (v Viewport) IsCompact() bool {
	return v == ViewportMobile
}

// ParseViewport maps a configuration string to a Viewport.
// An empty string selects the desktop viewport.
func ParseViewport(s string) (Viewport, error) {
	switch s {
	case "", string(ViewportDesktop):
		return ViewportDesktop, nil
	case string(ViewportMobile):
		return ViewportMobile, nil
	}
	return "", &ConfigError{Field: "viewport", Reason: "expected desktop or mobile", Value: s}
}

// Output keys written by workflows into a run record.
const (
	OutputPublishedURL = "published_url"
	OutputExitURL      = "exit_url"
	OutputTitle        = "title"
	OutputText         = "text"
)
