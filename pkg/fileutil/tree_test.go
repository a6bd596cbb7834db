package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

// writeTree creates files (relative path -> content) below root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCopyTree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "game_save")
	writeTree(t, src, map[string]string{
		"ProfileBrief.ssp":   "profile",
		"slot0/world.sav":    "world data",
		"slot0/deep/inv.sav": "inventory",
	})

	mtime := time.Date(2024, 3, 1, 12, 30, 45, 0, time.Local)
	marker := filepath.Join(src, "ProfileBrief.ssp")
	if err := os.Chtimes(marker, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(root, "bak", "nested", "2024-03-01_12-30-45")
	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	for rel, want := range map[string]string{
		"ProfileBrief.ssp":   "profile",
		"slot0/world.sav":    "world data",
		"slot0/deep/inv.sav": "inventory",
	} {
		got, err := os.ReadFile(filepath.Join(dst, rel))
		if err != nil {
			t.Errorf("reading %s: %v", rel, err)
			continue
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}

	info, err := os.Stat(filepath.Join(dst, "ProfileBrief.ssp"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("marker mtime = %v, want %v", info.ModTime(), mtime)
	}

	srcSum, err := TreeDigest(src)
	if err != nil {
		t.Fatal(err)
	}
	dstSum, err := TreeDigest(dst)
	if err != nil {
		t.Fatal(err)
	}
	if srcSum != dstSum {
		t.Errorf("digest mismatch: src %s, dst %s", srcSum, dstSum)
	}
}

func TestCopyTree_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, root string) (src, dst string)
		wantErr error
	}{
		{
			name: "destination exists",
			setup: func(t *testing.T, root string) (string, string) {
				src := filepath.Join(root, "src")
				dst := filepath.Join(root, "dst")
				writeTree(t, src, map[string]string{"a": "1"})
				writeTree(t, dst, map[string]string{"b": "2"})
				return src, dst
			},
			wantErr: fs.ErrExist,
		},
		{
			name: "source missing",
			setup: func(t *testing.T, root string) (string, string) {
				return filepath.Join(root, "missing"), filepath.Join(root, "dst")
			},
			wantErr: fs.ErrNotExist,
		},
		{
			name: "source is a file",
			setup: func(t *testing.T, root string) (string, string) {
				writeTree(t, root, map[string]string{"file": "x"})
				return filepath.Join(root, "file"), filepath.Join(root, "dst")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			src, dst := tt.setup(t, root)

			err := CopyTree(src, dst)
			if err == nil {
				t.Fatal("CopyTree() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("CopyTree() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCopyTree_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on Windows")
	}

	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeTree(t, src, map[string]string{"real.sav": "data"})
	if err := os.Symlink("real.sav", filepath.Join(src, "link.sav")); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(root, "dst")
	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	target, err := os.Readlink(filepath.Join(dst, "link.sav"))
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != "real.sav" {
		t.Errorf("link target = %q, want %q", target, "real.sav")
	}
}

func TestRemoveTree(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, root string) string
		wantGone  bool
		wantExist bool
	}{
		{
			name: "directory removed",
			setup: func(t *testing.T, root string) string {
				dir := filepath.Join(root, "bak")
				writeTree(t, dir, map[string]string{"a/b/c": "x"})
				return dir
			},
			wantGone: true,
		},
		{
			name: "missing path is a no-op",
			setup: func(t *testing.T, root string) string {
				return filepath.Join(root, "missing")
			},
			wantGone: true,
		},
		{
			name: "regular file left alone",
			setup: func(t *testing.T, root string) string {
				writeTree(t, root, map[string]string{"file": "x"})
				return filepath.Join(root, "file")
			},
			wantExist: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t, t.TempDir())

			if err := RemoveTree(path); err != nil {
				t.Fatalf("RemoveTree() error = %v", err)
			}

			_, err := os.Lstat(path)
			if tt.wantGone && err == nil {
				t.Errorf("%s still exists", path)
			}
			if tt.wantExist && err != nil {
				t.Errorf("%s was removed: %v", path, err)
			}
		})
	}
}

func TestTreeDigest_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"ProfileBrief.ssp": "a", "slot/x": "b"})

	before, err := TreeDigest(dir)
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, dir, map[string]string{"slot/x": "changed"})

	after, err := TreeDigest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("TreeDigest() did not change after content change")
	}
}
