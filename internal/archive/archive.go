// Package archive unpacks release tarballs into a staging directory.
package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/ulikunitz/xz"
)

// Format is the compression wrapped around a tar stream.
type Format string

const (
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
	FormatTar   Format = "tar"
)

// ErrUnsafePath is returned for entries that would land outside the destination.
var ErrUnsafePath = errors.New("unsafe path in archive")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

func detect(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return FormatTarGz
	case bytes.HasPrefix(header, xzMagic):
		return FormatTarXz
	default:
		return FormatTar
	}
}

// DetectFormat sniffs the compression of the archive at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(xzMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading archive header %s: %w", path, err)
	}
	return detect(header[:n]), nil
}

// Extract unpacks the archive at archivePath into destDir. Entries are
// checked against the resolved filesystem, so symlinks extracted earlier
// cannot redirect later entries outside destDir.
func Extract(archivePath, destDir string) error {
	log := logger.Logger()

	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer f.Close()

	var r io.Reader
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case FormatTarXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	default:
		r = f
	}

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination %s: %w", destDir, err)
	}
	if err := os.MkdirAll(absDest, 0755); err != nil {
		return fmt.Errorf("creating destination %s: %w", absDest, err)
	}
	realDest, err := filepath.EvalSymlinks(absDest)
	if err != nil {
		return fmt.Errorf("resolving destination %s: %w", absDest, err)
	}

	log.Debugf("extracting %s (%s) into %s", archivePath, format, realDest)
	count, err := untar(tar.NewReader(r), realDest)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", archivePath, err)
	}
	log.Debugf("extracted %d entries from %s", count, filepath.Base(archivePath))
	return nil
}

// untar writes the entries of tr below dest, which must already be a
// resolved path.
func untar(tr *tar.Reader, dest string) (int, error) {
	log := logger.Logger()
	count := 0

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read tar header: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return count, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if _, err := resolveWithin(dest, target); err != nil {
				return count, err
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if _, err := resolveWithin(dest, filepath.Dir(target)); err != nil {
				return count, err
			}
			if err := removeSymlink(target); err != nil {
				return count, err
			}
			if err := writeFile(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return count, err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return count, fmt.Errorf("%w: symlink %s points to absolute path %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			parent, err := resolveWithin(dest, filepath.Dir(target))
			if err != nil {
				return count, err
			}
			if !within(dest, filepath.Join(parent, hdr.Linkname)) {
				return count, fmt.Errorf("%w: symlink %s escapes destination", ErrUnsafePath, hdr.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return count, fmt.Errorf("failed to create directory: %w", err)
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return count, fmt.Errorf("failed to create symlink: %w", err)
			}
		default:
			log.Debugf("skipping %s: unsupported tar entry type %q", hdr.Name, hdr.Typeflag)
			continue
		}
		count++
	}
	return count, nil
}

// safeJoin joins name under dest and rejects results outside dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !within(dest, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveWithin resolves symlinks in the longest existing prefix of path and
// fails unless the physical location is still below root.
func resolveWithin(root, path string) (string, error) {
	existing := path
	var missing []string
	for {
		_, err := os.Lstat(existing)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", existing, err)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		missing = append([]string{filepath.Base(existing)}, missing...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %v", ErrUnsafePath, existing, err)
	}
	resolved = filepath.Join(append([]string{resolved}, missing...)...)
	if !within(root, resolved) {
		rel, _ := filepath.Rel(root, path)
		return "", fmt.Errorf("%w: %s resolves outside destination", ErrUnsafePath, rel)
	}
	return resolved, nil
}

// removeSymlink drops a symlink at target so a regular file entry replaces
// it instead of writing through it.
func removeSymlink(target string) error {
	fi, err := os.Lstat(target)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("replacing symlink %s: %w", target, err)
	}
	return nil
}

func writeFile(r io.Reader, target string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}
