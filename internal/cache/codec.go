// SPDX-License-Identifier: MIT

package cache

import (
	"encoding/json"
	"time"
)

// GetJSON decodes the cached value for key into a T. A value that no longer
// decodes is treated as a miss and evicted.
func GetJSON[T any](c Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.Delete(key)
		var zero T
		return zero, false
	}
	return out, true
}

// SetJSON encodes v and stores it under key.
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Set(key, raw, ttl)
	return nil
}
