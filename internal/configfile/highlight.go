// SPDX-License-Identifier: MIT

package configfile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	styleName = "monokai"
	// WrapperClass is the CSS class of the element enclosing highlighted code.
	WrapperClass = "highlight"
)

// Highlighter renders source text as class-annotated HTML.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter
}

// NewHighlighter returns a monokai highlighter with table line numbers.
func NewHighlighter() *Highlighter {
	return &Highlighter{
		style: styles.Get(styleName),
		formatter: html.New(
			html.WithClasses(true),
			html.WithLineNumbers(true),
			html.LineNumbersInTable(true),
			html.TabWidth(4),
		),
	}
}

// Lexer resolves language to a lexer, falling back to content analysis and
// finally plain text.
func Lexer(language, content string) chroma.Lexer {
	l := lexers.Get(language)
	if l == nil {
		l = lexers.Analyse(content)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// Highlight renders content wrapped in a div carrying WrapperClass.
func (h *Highlighter) Highlight(content, language string) (string, error) {
	it, err := Lexer(language, content).Tokenise(nil, content)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}
	var buf bytes.Buffer
	buf.WriteString(`<div class="` + WrapperClass + `">`)
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return "", fmt.Errorf("format %s: %w", language, err)
	}
	buf.WriteString("</div>\n")
	return buf.String(), nil
}

// CSS returns the style sheet for highlighted output, every rule scoped
// under the wrapper class.
func (h *Highlighter) CSS() (string, error) {
	var buf bytes.Buffer
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return "", fmt.Errorf("write css: %w", err)
	}
	return scopeCSS(buf.String(), "."+WrapperClass), nil
}

// scopeCSS prefixes the selector of every "/* Name */ .sel { ... }" rule.
func scopeCSS(css, scope string) string {
	lines := strings.Split(css, "\n")
	for i, line := range lines {
		head, rule, ok := strings.Cut(line, "*/ ")
		if !ok || !strings.HasPrefix(rule, ".") {
			continue
		}
		lines[i] = head + "*/ " + scope + " " + rule
	}
	return strings.Join(lines, "\n")
}
