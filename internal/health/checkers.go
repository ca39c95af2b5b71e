// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
)

// FuncChecker adapts a function to Checker.
type FuncChecker struct {
	name  string
	check func(ctx context.Context) CheckResult
}

// NewFuncChecker wraps check under name.
func NewFuncChecker(name string, check func(ctx context.Context) CheckResult) *FuncChecker {
	return &FuncChecker{name: name, check: check}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult { return c.check(ctx) }

// PingChecker reports a dependency unhealthy, or degraded when optional,
// whenever ping fails.
type PingChecker struct {
	name     string
	ping     func(ctx context.Context) error
	optional bool
}

// NewPingChecker creates a checker around ping.
func NewPingChecker(name string, ping func(ctx context.Context) error, optional bool) *PingChecker {
	return &PingChecker{name: name, ping: ping, optional: optional}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		status := StatusUnhealthy
		if c.optional {
			status = StatusDegraded
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// DirChecker checks that a directory exists. A missing optional directory is
// reported as degraded.
type DirChecker struct {
	name     string
	path     string
	optional bool
}

// NewDirChecker creates a checker for directory existence
func NewDirChecker(name, path string, optional bool) *DirChecker {
	return &DirChecker{name: name, path: path, optional: optional}
}

func (c *DirChecker) Name() string {
	return c.name
}

func (c *DirChecker) Check(_ context.Context) CheckResult {
	failed := StatusUnhealthy
	if c.optional {
		failed = StatusDegraded
	}
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: failed, Error: "directory not found", Message: c.path}
		}
		return CheckResult{Status: failed, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: failed, Error: "expected directory, got file", Message: c.path}
	}
	return CheckResult{Status: StatusHealthy}
}
