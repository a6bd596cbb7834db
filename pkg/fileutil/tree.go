package fileutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/sumdb/dirhash"
)

// CopyTree recursively copies the directory src to dst.
//
// dst must not exist; CopyTree returns an error matching fs.ErrExist
// otherwise. Missing parents of dst are created. Regular files keep their
// permission bits and modification times, directories keep their
// permission bits, and symbolic links are recreated as links.
//
// The copy is not atomic. A failure part way through leaves a partial
// tree at dst which the caller owns.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "stat source %s", src)
	}
	if !info.IsDir() {
		return errors.Newf("source %s is not a directory", src)
	}

	if _, err := os.Lstat(dst); err == nil {
		return errors.Wrapf(fs.ErrExist, "destination %s", dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "stat destination %s", dst)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating destination parent")
	}

	type dirTime struct {
		path  string
		mtime time.Time
	}
	var dirs []dirTime

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			if err := os.Mkdir(target, info.Mode().Perm()|0o700); err != nil {
				return err
			}
			dirs = append(dirs, dirTime{path: target, mtime: info.ModTime()})
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target, info)
		default:
			// Sockets, devices and pipes have no place in a save directory.
			return nil
		}
	})
	if err != nil {
		return errors.Wrapf(err, "copying %s to %s", src, dst)
	}

	// Children touch their parent's mtime, so directories are stamped last,
	// deepest first.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Chtimes(dirs[i].path, dirs[i].mtime, dirs[i].mtime)
	}

	return nil
}

func copyFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// The marker file's mtime is the save's identity; it must survive the copy.
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// RemoveTree deletes path and everything below it when path is an existing
// directory. Anything else, including a missing path, is a no-op.
func RemoveTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	if !info.IsDir() {
		return nil
	}

	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}

// TreeDigest returns a content digest of every file below dir. Two trees
// with identical relative paths and file contents have equal digests;
// modification times and permissions are not part of the digest.
func TreeDigest(dir string) (string, error) {
	sum, err := dirhash.HashDir(dir, "", dirhash.Hash1)
	if err != nil {
		return "", errors.Wrapf(err, "hashing %s", dir)
	}
	return sum, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
