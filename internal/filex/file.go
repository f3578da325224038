// Package filex contains small filesystem helpers shared by the watcher and
// the transfer engine.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// FormatSize renders a byte count in a human-readable form, e.g. "1.5 GB".
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// IsDirListable reports whether dir exists and its contents can be listed.
// Used as a lightweight reachability probe for network mounts.
func IsDirListable(dir string) bool {
	_, err := os.ReadDir(dir)
	return err == nil
}

// Ext returns the lower-cased file extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
