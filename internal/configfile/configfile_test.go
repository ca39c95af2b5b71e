// SPDX-License-Identifier: MIT

package configfile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFetcher map[string]string

func (m mapFetcher) FetchRawFile(_ context.Context, repo, path string) (string, bool) {
	content, ok := m[repo+"/"+path]
	return content, ok
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"scripts/install.sh":       "bash",
		"tools/sync.py":            "python",
		"kitty/kitty.conf":         "ini",
		"alacritty.toml":           "toml",
		"config.YML":               "yaml",
		"waybar/config.json":       "json",
		"README.md":                "markdown",
		"nvim/init.lua":            "lua",
		"yabairc":                  "bash",
		".config/skhd/skhdrc":      "bash",
		"bordersrc":                "bash",
		".zshrc":                   "bash",
		"hypr/hyprland.conf":       "ini",
		"hyprland/keybinds":        "ini",
		"Makefile":                 "text",
		"dir.with.dots/plain_file": "text",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectLanguage(path), path)
	}
}

func TestService_File(t *testing.T) {
	svc := NewService(mapFetcher{
		"o/r/.config/skhd/skhdrc": "# apps\nalt - return : open -a Terminal\n",
	})

	f, ok := svc.File(context.Background(), "o/r", ".config/skhd/skhdrc")
	require.True(t, ok)

	assert.Equal(t, "o/r", f.Repo)
	assert.Equal(t, ".config/skhd/skhdrc", f.Path)
	assert.Equal(t, "bash", f.Language)
	assert.Equal(t, "# apps\nalt - return : open -a Terminal\n", f.Content)
	assert.True(t, strings.HasPrefix(f.HighlightedHTML, `<div class="highlight">`))
	assert.Contains(t, f.HighlightedHTML, `class="chroma"`)
	assert.Contains(t, f.HighlightedHTML, "lntable", "line numbers rendered in a table")
	assert.Contains(t, f.HighlightedHTML, "Terminal")
}

func TestService_FileMissingOrEmpty(t *testing.T) {
	svc := NewService(mapFetcher{"o/r/empty.conf": ""})

	_, ok := svc.File(context.Background(), "o/r", "missing.conf")
	assert.False(t, ok)
	_, ok = svc.File(context.Background(), "o/r", "empty.conf")
	assert.False(t, ok)
}

func TestService_FileEscapesMarkup(t *testing.T) {
	svc := NewService(mapFetcher{"o/r/notes": "<script>alert(1)</script>"})

	f, ok := svc.File(context.Background(), "o/r", "notes")
	require.True(t, ok)
	assert.Equal(t, "text", f.Language)
	assert.NotContains(t, f.HighlightedHTML, "<script>")
	assert.Contains(t, f.HighlightedHTML, "&lt;script&gt;")
}

func TestService_HighlightCSS(t *testing.T) {
	svc := NewService(mapFetcher{})

	css, err := svc.HighlightCSS()
	require.NoError(t, err)
	require.NotEmpty(t, css)

	for _, line := range strings.Split(strings.TrimSpace(css), "\n") {
		if _, rule, ok := strings.Cut(line, "*/ "); ok && !strings.HasPrefix(rule, ".highlight ") {
			t.Errorf("unscoped rule: %q", line)
		}
	}
	assert.Contains(t, css, ".highlight .chroma")

	again, err := svc.HighlightCSS()
	require.NoError(t, err)
	assert.Equal(t, css, again)
}

func TestLexerFallback(t *testing.T) {
	assert.NotNil(t, Lexer("no-such-language", "plain words"))
	assert.Equal(t, "Bash", Lexer("bash", "").Config().Name)
}

func TestScopeCSS(t *testing.T) {
	in := "/* Background */ .bg { color: #fff }\n/* Keyword */ .chroma .k { color: #f92672 }\nbody { }"
	want := "/* Background */ .highlight .bg { color: #fff }\n/* Keyword */ .highlight .chroma .k { color: #f92672 }\nbody { }"
	assert.Equal(t, want, scopeCSS(in, ".highlight"))
}
