// SPDX-License-Identifier: MIT

// Package parsers implements keybind.Parser for the dotfile formats the
// portfolio understands: Markdown keybind tables, skhd hotkey files and
// Hyprland configs.
package parsers

import (
	"strings"

	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/normalize"
)

// markdownModifiers lists the cell tokens treated as modifiers in tables.
var markdownModifiers = map[string]struct{}{
	"option":  {},
	"opt":     {},
	"alt":     {},
	"ctrl":    {},
	"control": {},
	"shift":   {},
	"cmd":     {},
	"command": {},
}

// Markdown parses keybind tables from a Markdown document.
//
// Level-two headers ("## Apps") set the category. Each table row contributes
// one binding: the first cell is a "+"-joined key combo, the second the
// action text.
type Markdown struct {
	platform keybind.Platform
}

// NewMarkdown returns a Markdown parser stamping bindings with platform.
func NewMarkdown(platform keybind.Platform) *Markdown {
	return &Markdown{platform: platform}
}

// Parse implements keybind.Parser.
func (m *Markdown) Parse(content string) []keybind.Keybind {
	out := []keybind.Keybind{}
	category := keybind.DefaultCategory

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if rest, ok := strings.CutPrefix(line, "## "); ok {
			category = strings.TrimSpace(rest)
			continue
		}
		if !strings.HasPrefix(line, "|") || strings.Contains(line, "---") {
			continue
		}

		cells := tableCells(line)
		if len(cells) < 2 || strings.ToLower(cells[0]) == "keybind" {
			continue
		}
		if kb, ok := m.parseCombo(cells[0], cells[1], category); ok {
			out = append(out, kb)
		}
	}
	return out
}

func (m *Markdown) parseCombo(combo, action, category string) (keybind.Keybind, bool) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return keybind.Keybind{}, false
	}

	mods := []string{}
	key := ""
	for _, part := range strings.Split(combo, "+") {
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)
		if _, isMod := markdownModifiers[lower]; isMod {
			mods = append(mods, normalize.Modifier(part))
			continue
		}
		if lower == "arrow" {
			key = "arrows"
			continue
		}
		// "j/down" documents alternates; the first spelling is the key.
		alt, _, _ := strings.Cut(part, "/")
		key = normalize.Key(alt)
	}
	if key == "" {
		return keybind.Keybind{}, false
	}

	return keybind.Keybind{
		Platform:  m.platform,
		Category:  category,
		Modifiers: mods,
		Key:       key,
		Action:    action,
	}, true
}

// tableCells splits a table row and drops the cells outside the outer pipes.
func tableCells(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil
	}
	inner := parts[1 : len(parts)-1]
	cells := make([]string, len(inner))
	for i, c := range inner {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}
