package formula

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
)

// Install copies the formula's executable from an extracted archive into
// binDir and returns the installed path. Re-running overwrites the prior copy.
// Nothing is written when the executable is missing from the archive.
func (f *Formula) Install(archiveRoot, binDir string) (string, error) {
	log := logger.Logger()

	src, err := f.locateBinary(archiveRoot)
	if err != nil {
		return "", err
	}
	log.Debugf("found %s in archive at %s", f.Binary(), src)

	if err := os.MkdirAll(binDir, 0755); err != nil {
		return "", fmt.Errorf("creating bin directory %s: %w", binDir, err)
	}

	dest := filepath.Join(binDir, f.Binary())
	if err := copyExecutable(src, dest); err != nil {
		return "", fmt.Errorf("installing %s to %s: %w", f.Binary(), dest, err)
	}

	log.Infof("installed %s %s to %s", f.Name, f.Version, dest)
	return dest, nil
}

// locateBinary finds the executable either directly under root or as the
// single regular file of that name anywhere below it.
func (f *Formula) locateBinary(root string) (string, error) {
	name := f.Binary()

	fi, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: archive root %s: %v", ErrMalformedArtifact, root, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: archive root %s is not a directory", ErrMalformedArtifact, root)
	}

	direct := filepath.Join(root, name)
	if fi, err := os.Lstat(direct); err == nil && fi.Mode().IsRegular() {
		return direct, nil
	}

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == name && d.Type().IsRegular() {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: scanning %s: %v", ErrMalformedArtifact, root, err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: executable %q not found in archive", ErrMalformedArtifact, name)
	case 1:
		return matches[0], nil
	default:
		rel := make([]string, 0, len(matches))
		for _, m := range matches {
			r, _ := filepath.Rel(root, m)
			rel = append(rel, r)
		}
		return "", fmt.Errorf("%w: executable %q is ambiguous in archive: %s",
			ErrMalformedArtifact, name, strings.Join(rel, ", "))
	}
}

// copyExecutable writes src next to dest and renames it into place.
func copyExecutable(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Chmod(0755); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			if rmErr := os.Remove(dest); rmErr == nil {
				err = os.Rename(tmp.Name(), dest)
			}
		}
		return err
	}
	return nil
}
