// SPDX-License-Identifier: MIT

package configfile

import (
	"path"
	"strings"
)

const fallbackLanguage = "text"

var extensionLanguages = map[string]string{
	".py":   "python",
	".sh":   "bash",
	".conf": "ini",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".md":   "markdown",
	".lua":  "lua",
}

// DetectLanguage picks the highlighter language for a repository path.
// Shell rc files and Hyprland configs are recognised by name before the
// extension map is consulted.
func DetectLanguage(p string) string {
	switch {
	case strings.HasSuffix(p, "rc"):
		return "bash"
	case strings.Contains(p, "hyprland"):
		return "ini"
	}
	if lang, ok := extensionLanguages[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return fallbackLanguage
}
