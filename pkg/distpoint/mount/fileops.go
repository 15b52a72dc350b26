package mount

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marmos91/distsync/pkg/distpoint"
)

// File operations shared by mounted and local repositories. Every backend
// exposes flat Packages/ and Scripts/ directories at its root; payloads land
// directly under the category directory with no nesting.

// copyInto places the source file (or bundle directory) at
// <root>/<category dir>/<basename>.
func copyInto(root, source string, cat distpoint.Category) error {
	source, err := filepath.Abs(expandUser(source))
	if err != nil {
		return err
	}

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("reading payload %s: %w", source, err)
	}

	dest := filepath.Join(root, cat.Dir(), filepath.Base(source))
	if info.IsDir() {
		// Bundle-style packages are directories; file shares store them
		// as-is.
		return copyTree(source, dest)
	}
	return copyFile(source, dest)
}

// statIn reports whether the named file exists under the category directory.
func statIn(root, filename string, cat distpoint.Category) (bool, error) {
	_, err := os.Stat(filepath.Join(root, cat.Dir(), filename))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// removeIn deletes the named file or bundle directory from the category
// directory.
func removeIn(root, filename string, cat distpoint.Category) error {
	path := filepath.Join(root, cat.Dir(), filename)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	// Carry the source mode over; scripts keep their executable bit.
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	// The create mode is filtered through the umask; chmod restores the
	// exact source bits.
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	return out.Close()
}

func copyTree(source, dest string) error {
	return filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target)
	})
}

func expandUser(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
