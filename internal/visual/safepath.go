package visual

import (
	"fmt"
	"path/filepath"
	"strings"
)

// safePath resolves userPath against base and refuses anything that lands
// outside it.
func safePath(base, userPath string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	var resolved string
	if filepath.IsAbs(userPath) {
		resolved = filepath.Clean(userPath)
	} else {
		resolved = filepath.Clean(filepath.Join(absBase, userPath))
	}

	if !strings.HasPrefix(resolved, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", userPath, absBase)
	}
	return resolved, nil
}

// checkName rejects capture names that are not a single file name inside
// the baseline directory. Names come from the command line for approve.
func (s *Store) checkName(name string) error {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return fmt.Errorf("invalid capture name %q", name)
	}
	_, err := safePath(s.BaselineDir, name+"."+s.ext())
	return err
}
