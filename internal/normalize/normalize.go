// SPDX-License-Identifier: MIT

// Package normalize canonicalizes the free-form tokens found in dotfile
// keybinding sources so bindings from different formats compare equal.
package normalize

import (
	"strings"
	"unicode"
)

// Token normalizes a string token for matching:
// - trims Unicode whitespace + invisible edge characters
// - lowercases for case-insensitive comparisons
func Token(s string) string {
	return strings.ToLower(strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) ||
			r == '\u200B' || // Zero Width Space
			r == '\u200C' || // Zero Width Non-Joiner
			r == '\u200D' || // Zero Width Joiner
			r == '\uFEFF' // Zero Width Non-Breaking Space (BOM)
	}))
}

// Canonical modifier tokens.
const (
	ModOpt   = "opt"
	ModCtrl  = "ctrl"
	ModShift = "shift"
	ModCmd   = "cmd"
)

var modifierAliases = map[string]string{
	"alt":    ModOpt,
	"option": ModOpt,
	"lalt":   ModOpt,
	"ralt":   ModOpt,

	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"lctrl":   ModCtrl,
	"rctrl":   ModCtrl,

	"shift":  ModShift,
	"lshift": ModShift,
	"rshift": ModShift,

	"cmd":      ModCmd,
	"super":    ModCmd,
	"mod4":     ModCmd,
	"command":  ModCmd,
	"$mainmod": ModCmd,
	"mainmod":  ModCmd,
}

var keyAliases = map[string]string{
	"return":    "enter",
	"escape":    "esc",
	"space":     "space",
	"left":      "left",
	"right":     "right",
	"up":        "up",
	"down":      "down",
	"backspace": "backspace",
	"tab":       "tab",
	"delete":    "del",
}

// Modifier maps a raw modifier spelling to its canonical token.
// Unknown spellings are returned lower-cased and trimmed.
func Modifier(raw string) string {
	tok := Token(raw)
	if canonical, ok := modifierAliases[tok]; ok {
		return canonical
	}
	return tok
}

// Key maps a raw key name to its canonical token.
// Unknown names are returned lower-cased and trimmed.
func Key(raw string) string {
	tok := Token(raw)
	if canonical, ok := keyAliases[tok]; ok {
		return canonical
	}
	return tok
}

// ModifierSpellings returns every raw spelling Modifier recognizes.
func ModifierSpellings() []string {
	out := make([]string, 0, len(modifierAliases))
	for k := range modifierAliases {
		out = append(out, k)
	}
	return out
}
