// SPDX-License-Identifier: MIT

package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()

	tests := []struct {
		name     string
		src      string
		contains []string
		absent   []string
	}{
		{
			name:     "gfm table",
			src:      "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "centered image keeps layout attributes",
			src:      `<p align="center"><img src="https://x/y.png" width="120"></p>`,
			contains: []string{`align="center"`, `width="120"`},
		},
		{
			name:   "script stripped",
			src:    "hi\n\n<script>alert(1)</script>\n",
			absent: []string{"<script"},
		},
		{
			name:   "event handler stripped",
			src:    `<img src="https://x/y.png" onerror="alert(1)">`,
			absent: []string{"onerror"},
		},
		{
			name:   "javascript link stripped",
			src:    "[x](javascript:alert(1))",
			absent: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.src)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}
