// Package store reads and writes whole-file JSON documents with
// atomic replace-on-write semantics.
//
// Every writer reads the full document, computes a new full document,
// and replaces it wholesale. The rename is the atomicity boundary: a
// concurrent reader observes either the fully-old or the fully-new
// content, never a torn write.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Load parses the JSON document at path into a value of type T.
// A missing, unreadable or corrupt file yields def — callers treat
// all of those as "no state yet".
func Load[T any](path string, def T) T {
	data, err := os.ReadFile(path)
	if err != nil {
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def
	}
	return v
}

// Save writes v as 2-space indented JSON with a trailing newline.
// The document goes to a uniquely named temporary file in the same
// directory (mode 0600) and is renamed over path. The random suffix
// keeps concurrent writers from clobbering each other's temp files.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	// WriteFile perms are subject to the umask; pin the mode.
	if err := os.Chmod(tmp, 0600); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// EnsureDir creates the parent directory of path. Callers run this
// once per session before the first Save.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
