// SPDX-License-Identifier: MIT

package parsers

import (
	"strings"
	"unicode/utf8"

	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/normalize"
)

// maxCategoryLen bounds comment bodies that are read as section labels.
const maxCategoryLen = 30

var dispatcherActions = map[string]func(params string) string{
	"exec": func(params string) string {
		if fields := strings.Fields(params); len(fields) > 0 {
			return "Run " + fields[0]
		}
		return "Execute"
	},
	"killactive":      fixed("Close window"),
	"movefocus":       func(p string) string { return "Focus " + p },
	"movewindow":      func(p string) string { return "Move window " + p },
	"resizeactive":    fixed("Resize window"),
	"togglefloating":  fixed("Toggle floating"),
	"fullscreen":      fixed("Toggle fullscreen"),
	"workspace":       func(p string) string { return "Go to workspace " + p },
	"movetoworkspace": func(p string) string { return "Move to workspace " + p },
	"togglesplit":     fixed("Toggle split"),
}

// Hyprland parses hyprland.conf bind directives:
//
//	$mod = SUPER
//	# Windows
//	bind = $mod, Q, killactive,
//
// "$name = value" definitions are expanded in the modifier field of later
// binds. Expansion is a plain substring replacement applied in definition
// order, so a variable whose name contains another's ("$mod" and "$mod2")
// depends on that order.
type Hyprland struct{}

// NewHyprland returns a parser for Hyprland configs. Variables are scoped to
// a single Parse call, so one instance may be shared across goroutines.
func NewHyprland() *Hyprland {
	return &Hyprland{}
}

// Parse implements keybind.Parser.
func (h *Hyprland) Parse(content string) []keybind.Keybind {
	out := []keybind.Keybind{}
	category := keybind.DefaultCategory
	vars := &variables{}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if label := strings.TrimSpace(strings.TrimLeft(line, "#")); label != "" && utf8.RuneCountInString(label) < maxCategoryLen {
				category = label
			}
			continue
		}
		if strings.HasPrefix(line, "$") {
			if name, value, ok := strings.Cut(line, "="); ok {
				vars.set(strings.TrimSpace(name), strings.TrimSpace(value))
				continue
			}
		}
		if strings.HasPrefix(line, "bind") {
			if kb, ok := parseBind(line, category, vars); ok {
				out = append(out, kb)
			}
		}
	}
	return out
}

func parseBind(line, category string, vars *variables) (keybind.Keybind, bool) {
	_, rest, ok := strings.Cut(line, "=")
	if !ok {
		return keybind.Keybind{}, false
	}
	parts := strings.Split(rest, ",")
	if len(parts) < 3 {
		return keybind.Keybind{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	key := normalize.Key(parts[1])
	if key == "" {
		return keybind.Keybind{}, false
	}

	mods := []string{}
	for _, m := range strings.Fields(vars.expand(parts[0])) {
		mods = append(mods, normalize.Modifier(m))
	}

	dispatcher := parts[2]
	params := strings.Join(parts[3:], ",")

	command := dispatcher
	if params != "" {
		command = dispatcher + ", " + params
	}

	return keybind.Keybind{
		Platform:  keybind.PlatformHyprland,
		Category:  category,
		Modifiers: mods,
		Key:       key,
		Action:    dispatcherAction(dispatcher, params),
		Command:   keybind.StringPtr(command),
	}, true
}

func dispatcherAction(dispatcher, params string) string {
	if fn, ok := dispatcherActions[dispatcher]; ok {
		return fn(params)
	}
	return strings.TrimSpace(dispatcher + " " + params)
}

// variables is an insertion-ordered name to value table.
type variables struct {
	names  []string
	values map[string]string
}

func (v *variables) set(name, value string) {
	if v.values == nil {
		v.values = make(map[string]string)
	}
	if _, exists := v.values[name]; !exists {
		v.names = append(v.names, name)
	}
	v.values[name] = value
}

func (v *variables) expand(s string) string {
	for _, name := range v.names {
		s = strings.ReplaceAll(s, name, v.values[name])
	}
	return s
}
