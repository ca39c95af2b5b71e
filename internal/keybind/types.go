// SPDX-License-Identifier: MIT

// Package keybind holds the normalized keybinding model and the per-platform
// aggregator that fetches, parses and caches dotfile keybindings.
package keybind

import (
	"errors"
	"fmt"

	"github.com/duma799/portfolio/internal/normalize"
)

// Platform identifies the window-manager ecosystem a binding belongs to.
type Platform string

const (
	PlatformHyprland Platform = "hyprland"
	PlatformYabai    Platform = "yabai"
)

// DefaultCategory labels bindings that appear before any section header.
const DefaultCategory = "General"

// ErrUnknownPlatform is returned by ParsePlatform for unsupported names.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platforms returns the supported platforms in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformHyprland, PlatformYabai}
}

// ParsePlatform resolves a platform name case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(normalize.Token(s)); p {
	case PlatformHyprland, PlatformYabai:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
}

func (p Platform) String() string { return string(p) }

// Keybind is one normalized key combination extracted from a dotfile.
type Keybind struct {
	Platform  Platform `json:"platform"`
	Category  string   `json:"category"`
	Modifiers []string `json:"modifiers"`
	Key       string   `json:"key"`
	Action    string   `json:"action"`
	Command   *string  `json:"command"`
}

// Parser converts the text of one source format into keybinds.
// Implementations never return nil and never fail; malformed lines are dropped.
type Parser interface {
	Parse(content string) []Keybind
}

// StringPtr returns a pointer to s, for populating Keybind.Command.
func StringPtr(s string) *string {
	return &s
}
