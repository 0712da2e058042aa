// Package identity reads the node's own device identity record.
package identity

import (
	"strings"

	"github.com/pythonstrup/openclaw-docker/internal/store"
)

// Record is the on-disk identity document written by the gateway's
// key-generation step. Only the device id matters here.
type Record struct {
	DeviceID string `json:"deviceId"`
}

// DeviceID returns the node's own device id, or "" when no identity
// record exists yet.
func DeviceID(path string) string {
	rec := store.Load(path, Record{})
	return strings.TrimSpace(rec.DeviceID)
}
