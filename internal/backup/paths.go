package backup

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/thoreinstein/gfsave/internal/config"
	"github.com/thoreinstein/gfsave/internal/save"
)

// rootFor returns the backup root of kind.
func rootFor(cfg *config.Config, kind Kind) string {
	if kind == KindAutomatic {
		return cfg.AutoBackupRootPath
	}
	return cfg.BackupRootPath
}

// backupPath returns <root>/<identity>.
func backupPath(root string, id save.Identity) string {
	return filepath.Join(root, id.String())
}

// stagingPath returns the hidden sibling a snapshot of dst is built in
// before it is renamed into place. Catalog scans skip hidden names.
func stagingPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".partial")
}

// samePath reports whether a and b name the same location.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// contains reports whether child is parent or lies below it.
func contains(parent, child string) bool {
	if samePath(parent, child) {
		return true
	}
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
