// Package archive packs directory trees into gzip-compressed tarballs and
// unpacks them again, preserving file modes and modification times so that
// two trees extracted from the same archive start byte- and
// timestamp-identical.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the canonical archive extension used throughout the harness.
const Ext = ".tar.gz"

// Archiver packs and unpacks snapshot archives.
type Archiver struct {
	Logger *slog.Logger
}

// New creates an Archiver that logs to logger.
func New(logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Archiver{Logger: logger}
}

// Pack writes the contents of dir (not the directory itself) to a tar.gz
// archive at archivePath. Modification times are stored with sub-second
// precision via PAX headers.
func (a *Archiver) Pack(dir, archivePath string) error {
	a.Logger.Info("packing directory", "dir", dir, "archive", archivePath)

	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		hdr.Format = tar.FormatPAX

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("packing %s: %w", dir, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return f.Close()
}

// Unpack creates dir and extracts the archive at archivePath into it,
// restoring modes and modification times. Directory times are restored after
// all entries are written, since writing children bumps the parent's mtime.
func (a *Archiver) Unpack(archivePath, dir string) error {
	a.Logger.Info("unpacking archive", "archive", archivePath, "dir", dir)

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	type dirTime struct {
		path string
		hdr  *tar.Header
	}
	var dirs []dirTime

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}

		target, err := securePath(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
			dirs = append(dirs, dirTime{target, hdr})
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating parent of %s: %w", hdr.Name, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return fmt.Errorf("creating %s: %w", hdr.Name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return err
			}
			if err := os.Chtimes(target, hdr.AccessTime, hdr.ModTime); err != nil {
				return fmt.Errorf("restoring times on %s: %w", hdr.Name, err)
			}
		default:
			a.Logger.Debug("skipping archive entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := os.Chtimes(d.path, d.hdr.AccessTime, d.hdr.ModTime); err != nil {
			return fmt.Errorf("restoring times on %s: %w", d.hdr.Name, err)
		}
	}
	return nil
}

// PackSubdirectories packs each immediate child directory of root into a
// sibling archive with the same name. Directories whose name starts with one
// of ignorePrefixes are skipped. An existing archive is left alone unless
// force is set, in which case it is replaced.
func (a *Archiver) PackSubdirectories(root string, force bool, ignorePrefixes []string) error {
	a.Logger.Info("packing subdirectories", "root", root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if hasAnyPrefix(name, ignorePrefixes) {
			a.Logger.Debug("ignored entry", "name", name, "reason", "prefix")
			continue
		}
		if !entry.IsDir() {
			a.Logger.Debug("ignored entry", "name", name, "reason", "not a directory")
			continue
		}

		archivePath := filepath.Join(root, name+Ext)
		if _, err := os.Stat(archivePath); err == nil {
			if !force {
				a.Logger.Info("skipped packing", "name", name, "reason", "archive exists")
				continue
			}
			a.Logger.Info("removing existing archive", "archive", archivePath)
			if err := os.Remove(archivePath); err != nil {
				return fmt.Errorf("removing %s: %w", archivePath, err)
			}
		}

		if err := a.Pack(filepath.Join(root, name), archivePath); err != nil {
			return err
		}
	}
	return nil
}

// UnpackDirectory is the inverse of PackSubdirectories: every archive file
// directly under root is extracted into a sibling directory with the same
// name. An existing directory is left alone unless force is set.
func (a *Archiver) UnpackDirectory(root string, force bool) error {
	a.Logger.Info("unpacking directory", "root", root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			a.Logger.Debug("ignored entry", "name", name, "reason", "not a file")
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), Ext) {
			a.Logger.Debug("ignored entry", "name", name, "reason", "not an archive")
			continue
		}

		dirName := strings.TrimSuffix(name, Ext)
		dirPath := filepath.Join(root, dirName)
		if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
			if !force {
				a.Logger.Info("skipped unpacking", "name", name, "reason", "directory exists")
				continue
			}
			a.Logger.Info("removing existing directory", "dir", dirPath)
			if err := os.RemoveAll(dirPath); err != nil {
				return fmt.Errorf("removing %s: %w", dirPath, err)
			}
		}

		if err := a.Unpack(filepath.Join(root, name), dirPath); err != nil {
			return err
		}
	}
	return nil
}

// securePath joins name under dir, rejecting entries that would escape it.
func securePath(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if target != dir && !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes target directory", name)
	}
	return target, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
