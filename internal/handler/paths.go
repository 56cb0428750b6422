package handler

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolveOutputPath 请求中的输出路径只能落在 base 之下：拒绝绝对路径与 ".." 逃逸
func resolveOutputPath(base, p string) (string, error) {
	if filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", fmt.Errorf("path must be relative to %s: %s", base, p)
	}
	cleaned := filepath.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes %s: %s", base, p)
	}
	return filepath.Join(base, cleaned), nil
}
