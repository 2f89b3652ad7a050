package toolchain

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Unzip decompresses every entry of the archive at zipFilePath into localPath, keeping file modes and symlinks.
// Returns the number of files (not directories) written.
func Unzip(zipFilePath, localPath string) (int, error) {
	r, err := zip.OpenReader(zipFilePath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	if err := os.MkdirAll(localPath, 0755); err != nil {
		return 0, fmt.Errorf("Failed to create local directory %s: %s", localPath, err)
	}

	fileCount := 0

	for _, f := range r.File {
		path, err := entryPath(localPath, f.Name)
		if err != nil {
			return fileCount, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(path, 0755); err != nil {
				return fileCount, fmt.Errorf("Failed to create local directory %s: %s", path, err)
			}

		case mode&fs.ModeSymlink != 0:
			target, err := readEntry(f)
			if err != nil {
				return fileCount, err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fileCount, err
			}
			if err := os.Symlink(string(target), path); err != nil {
				return fileCount, fmt.Errorf("Failed to create symlink %s: %s", path, err)
			}
			fileCount++

		default:
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fileCount, err
			}
			if err := writeEntry(f, path, mode.Perm()|0600); err != nil {
				return fileCount, err
			}
			fileCount++
		}
	}

	return fileCount, nil
}

// entryPath resolves an archive entry name under root, rejecting names that would escape it
func entryPath(root, name string) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(name))
	if path != filepath.Clean(root) && !strings.HasPrefix(path, filepath.Clean(root)+string(filepath.Separator)) {
		return "", fmt.Errorf("Illegal path in archive: %s", name)
	}
	return path, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	readCloser, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("Failed to open file %s: %s", f.Name, err)
	}
	defer readCloser.Close()

	data, err := io.ReadAll(readCloser)
	if err != nil {
		return nil, fmt.Errorf("Failed to read file %s: %s", f.Name, err)
	}
	return data, nil
}

func writeEntry(f *zip.File, path string, perm os.FileMode) error {
	readCloser, err := f.Open()
	if err != nil {
		return fmt.Errorf("Failed to open file %s: %s", f.Name, err)
	}
	defer readCloser.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("Failed to write file: %s", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, readCloser); err != nil {
		return fmt.Errorf("Failed to write file: %s", err)
	}
	return nil
}

// ZipCommand returns the invocation that zips dirName (relative to workingDir) into zipName, recursing and
// storing symlinks as links so app bundles survive the round trip.
func ZipCommand(workingDir, zipName, dirName string) Command {
	return Command{
		Name:       "zip",
		Args:       []string{"-r", "-y", zipName, dirName},
		WorkingDir: workingDir,
	}
}
