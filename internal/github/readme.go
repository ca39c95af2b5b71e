// SPDX-License-Identifier: MIT

package github

import (
	"regexp"
	"strings"
)

var (
	markdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	htmlImage     = regexp.MustCompile(`(<img[^>]*src=)"([^"]+)"`)
)

// FixRelativeURLs rewrites relative image references in a README so they
// resolve against rawBase (".../owner/repo/branch"). Absolute and
// protocol-relative URLs are left alone.
func FixRelativeURLs(content, rawBase string) string {
	content = markdownImage.ReplaceAllStringFunc(content, func(m string) string {
		sub := markdownImage.FindStringSubmatch(m)
		if isAbsolute(sub[2]) {
			return m
		}
		return "![" + sub[1] + "](" + rawBase + "/" + strings.TrimLeft(sub[2], "./") + ")"
	})
	return htmlImage.ReplaceAllStringFunc(content, func(m string) string {
		sub := htmlImage.FindStringSubmatch(m)
		if isAbsolute(sub[2]) {
			return m
		}
		return sub[1] + `"` + rawBase + "/" + strings.TrimLeft(sub[2], "./") + `"`
	})
}

func isAbsolute(p string) bool {
	return strings.HasPrefix(p, "http://") ||
		strings.HasPrefix(p, "https://") ||
		strings.HasPrefix(p, "//")
}
