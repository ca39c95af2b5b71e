// SPDX-License-Identifier: MIT
package validate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://api.github.com", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"with port", "http://example.com:8080", []string{"http"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)
			assert.Equal(t, tt.wantErr, !v.IsValid(), v.Err())
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		optional bool
		wantErr  bool
	}{
		{"port only", ":8000", false, false},
		{"host and port", "127.0.0.1:9090", false, false},
		{"ipv6", "[::1]:8000", false, false},
		{"empty optional", "", true, false},
		{"empty required", "", false, true},
		{"missing port", "localhost", false, true},
		{"port zero", ":0", false, true},
		{"port overflow", ":70000", false, true},
		{"named port", ":http", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.ListenAddr("api.listenAddr", tt.addr, tt.optional)
			assert.Equal(t, tt.wantErr, !v.IsValid(), v.Err())
		})
	}
}

func TestValidator_RepoSlug(t *testing.T) {
	valid := []string{"duma799/hyprduma-config", "o/r", "org.name/repo_name"}
	invalid := []string{"", "noslash", "/repo", "owner/", "a/b/c", "../x", "o/..", "o/r?x", "o/r r"}

	for _, s := range valid {
		v := New()
		v.RepoSlug("repos.x", s)
		assert.True(t, v.IsValid(), s)
	}
	for _, s := range invalid {
		v := New()
		v.RepoSlug("repos.x", s)
		assert.False(t, v.IsValid(), s)
	}
}

func TestValidator_Numbers(t *testing.T) {
	v := New()
	v.Range("r", 5, 1, 10)
	v.Positive("p", 1)
	v.NonNegative("n", 0)
	v.Fraction("f", 0.5)
	v.MinDuration("d", time.Minute, time.Second)
	require.True(t, v.IsValid())

	v.Range("r", 11, 1, 10)
	v.Positive("p", 0)
	v.NonNegative("n", -1)
	v.Fraction("f", 1.5)
	v.MinDuration("d", time.Millisecond, time.Second)

	var verr ValidationError
	require.ErrorAs(t, v.Err(), &verr)
	assert.Equal(t, []string{"r", "p", "n", "f", "d"}, verr.Fields())
}

func TestValidator_Directory(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name      string
		path      string
		mustExist bool
		wantErr   bool
	}{
		{"existing", base, true, false},
		{"created", filepath.Join(base, "new", "dir"), false, false},
		{"missing", filepath.Join(base, "absent"), true, true},
		{"traversal", "../etc", false, true},
		{"empty", "", false, true},
		{"not a directory", file, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Directory("dataDir", tt.path, tt.mustExist)
			assert.Equal(t, tt.wantErr, !v.IsValid(), v.Err())
		})
	}

	info, err := os.Stat(filepath.Join(base, "new", "dir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestValidator_OneOfAndNotEmpty(t *testing.T) {
	v := New()
	v.OneOf("cache.backend", "redis", []string{"memory", "redis"})
	v.NotEmpty("github.username", "duma799")
	require.True(t, v.IsValid())

	v.OneOf("cache.backend", "memcached", []string{"memory", "redis"})
	v.NotEmpty("github.username", "  ")
	assert.Len(t, v.Errors(), 2)
}

func TestValidator_MultipleErrors(t *testing.T) {
	v := New()
	v.Port("port", 0)
	v.URL("url", "", []string{"http"})
	v.NotEmpty("name", "")

	err := v.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "url")
	assert.Contains(t, err.Error(), "name")

	v.AddError("extra", "late", nil)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors(), 3, "Err snapshots the accumulated errors")
}

func TestParseLogLevel(t *testing.T) {
	for _, in := range []string{"trace", "debug", "INFO", " warn ", "error"} {
		_, err := ParseLogLevel(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseLogLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}
