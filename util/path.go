package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUser resolves a leading ~ to the home directory.
func ExpandUser(path string) string {
	if path == "~" {
		return os.Getenv("HOME")
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(os.Getenv("HOME"), path[2:])
	}
	return path
}
