// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for consistent tracing across the application.
const (
	KeybindPlatformKey = "keybind.platform"
	KeybindRepoKey     = "keybind.repo"
	KeybindSourceKey   = "keybind.source"
	KeybindCountKey    = "keybind.count"

	GitHubOperationKey = "github.operation"
	GitHubRepoKey      = "github.repo"

	CacheHitKey = "cache.hit"

	ErrorTypeKey = "error.type"
)

// KeybindAttributes describes a keybind load for platform from repo.
func KeybindAttributes(platform, repo string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(KeybindPlatformKey, platform),
		attribute.String(KeybindRepoKey, repo),
	}
}

// KeybindResultAttributes records which source won and how many bindings
// it produced. An empty source means every source was exhausted.
func KeybindResultAttributes(source string, count int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int(KeybindCountKey, count)}
	if source != "" {
		attrs = append(attrs, attribute.String(KeybindSourceKey, source))
	}
	return attrs
}

// GitHubAttributes describes an upstream GitHub operation.
func GitHubAttributes(operation, repo string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(GitHubOperationKey, operation)}
	if repo != "" {
		attrs = append(attrs, attribute.String(GitHubRepoKey, repo))
	}
	return attrs
}

// RecordError marks span failed with err classified as errorType.
func RecordError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(ErrorTypeKey, errorType))
}
