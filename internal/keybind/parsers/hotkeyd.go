// SPDX-License-Identifier: MIT

package parsers

import (
	"strings"
	"unicode/utf8"

	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/normalize"
)

const (
	hotkeySeparator   = " : "
	comboSeparator    = " - "
	maxRawActionLen   = 50
	rawActionEllipsis = "..."
)

// actionRule derives a human readable action from a hotkey command.
type actionRule struct {
	trigger string
	flag    string
	format  func(arg string) string
}

// hotkeyActions is matched in order; the first trigger contained in the
// command wins.
var hotkeyActions = []actionRule{
	{trigger: "open -a", flag: "open -a", format: func(app string) string {
		return "Open " + strings.Trim(app, `"`)
	}},
	{trigger: "yabai -m window --focus", flag: "--focus", format: func(arg string) string {
		return "Focus window " + arg
	}},
	{trigger: "yabai -m window --swap", flag: "--swap", format: func(arg string) string {
		return "Swap window " + arg
	}},
	{trigger: "yabai -m window --resize", format: fixed("Resize window")},
	{trigger: "yabai -m window --toggle", flag: "--toggle", format: func(arg string) string {
		return "Toggle " + arg
	}},
	{trigger: "yabai -m space --layout", flag: "--layout", format: func(arg string) string {
		return "Set " + arg + " layout"
	}},
	{trigger: "yabai -m space --rotate", format: fixed("Rotate layout")},
	{trigger: "yabai -m space --balance", format: fixed("Balance windows")},
	{trigger: "yabai --restart-service", format: fixed("Restart yabai")},
}

func fixed(s string) func(string) string {
	return func(string) string { return s }
}

// HotkeyDaemon parses skhd-style hotkey files for yabai:
//
//	# Apps
//	alt - return : open -a "Terminal"
//
// Comment lines set the category; binding lines are "mods - key : command".
type HotkeyDaemon struct{}

// NewHotkeyDaemon returns a parser for skhd hotkey files.
func NewHotkeyDaemon() *HotkeyDaemon {
	return &HotkeyDaemon{}
}

// Parse implements keybind.Parser.
func (h *HotkeyDaemon) Parse(content string) []keybind.Keybind {
	out := []keybind.Keybind{}
	category := keybind.DefaultCategory

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, "#!/") {
				continue
			}
			if label := strings.TrimSpace(strings.TrimLeft(line, "#")); label != "" && !strings.HasPrefix(label, "!") {
				category = label
			}
			continue
		}
		if !strings.Contains(line, hotkeySeparator) {
			continue
		}
		if kb, ok := parseHotkeyLine(line, category); ok {
			out = append(out, kb)
		}
	}
	return out
}

func parseHotkeyLine(line, category string) (keybind.Keybind, bool) {
	combo, command, _ := strings.Cut(line, hotkeySeparator)
	combo = strings.TrimSpace(combo)
	command = strings.TrimSpace(command)

	// Split on the last separator so key names containing " - " survive.
	idx := strings.LastIndex(combo, comboSeparator)
	if idx < 0 {
		return keybind.Keybind{}, false
	}
	modPart, keyPart := combo[:idx], combo[idx+len(comboSeparator):]

	key := normalize.Key(keyPart)
	if key == "" {
		return keybind.Keybind{}, false
	}

	mods := []string{}
	for _, m := range strings.Split(modPart, "+") {
		if m = strings.TrimSpace(m); m != "" {
			mods = append(mods, normalize.Modifier(m))
		}
	}

	return keybind.Keybind{
		Platform:  keybind.PlatformYabai,
		Category:  category,
		Modifiers: mods,
		Key:       key,
		Action:    hotkeyAction(command),
		Command:   keybind.StringPtr(command),
	}, true
}

func hotkeyAction(command string) string {
	for _, rule := range hotkeyActions {
		if !strings.Contains(command, rule.trigger) {
			continue
		}
		arg := ""
		if rule.flag != "" {
			arg = strings.TrimSpace(afterLast(command, rule.flag))
		}
		return rule.format(arg)
	}
	return truncateAction(command)
}

func afterLast(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}

func truncateAction(command string) string {
	if utf8.RuneCountInString(command) <= maxRawActionLen {
		return command
	}
	runes := []rune(command)
	return string(runes[:maxRawActionLen]) + rawActionEllipsis
}
