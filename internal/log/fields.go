// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Domain fields
	FieldPlatform = "platform"
	FieldRepo     = "repo"
	FieldPath     = "path"
	FieldCategory = "category"
	FieldSource   = "source"
	FieldCount    = "count"

	// Upstream fields
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldBaseURL   = "base_url"
)
