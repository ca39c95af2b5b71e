// SPDX-License-Identifier: MIT

// Package config loads the portfolio configuration with the precedence
// environment > YAML file > defaults, validates it, and hot-reloads the
// file through ConfigHolder.
package config
