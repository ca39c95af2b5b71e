// SPDX-License-Identifier: MIT

package parsers

import "github.com/duma799/portfolio/internal/keybind"

// Well-known file names inside the dotfiles repositories.
const (
	YabaiMarkdownPath    = "Keybinds.md"
	YabaiHotkeyPath      = "skhdrc"
	HyprlandMarkdownPath = "KEYBINDS.md"
	HyprlandConfigPath   = "hyprland.conf"
)

// DefaultSources returns the ordered source list per platform. The curated
// Markdown document is preferred; the raw config is the fallback.
func DefaultSources() map[keybind.Platform][]keybind.Source {
	return map[keybind.Platform][]keybind.Source{
		keybind.PlatformYabai: {
			{Name: "markdown", Path: YabaiMarkdownPath, Parser: NewMarkdown(keybind.PlatformYabai)},
			{Name: "skhd", Path: YabaiHotkeyPath, Parser: NewHotkeyDaemon()},
		},
		keybind.PlatformHyprland: {
			{Name: "markdown", Path: HyprlandMarkdownPath, Parser: NewMarkdown(keybind.PlatformHyprland)},
			{Name: "hyprland", Path: HyprlandConfigPath, Parser: NewHyprland()},
		},
	}
}
