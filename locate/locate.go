// Package locate finds files and directories by walking up from a starting directory, the way tools discover
// project-level configuration.
package locate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// GitDirName is the entry marking the root of a git working tree
const GitDirName = ".git"

// Walker searches ancestor directories of Start, never leaving Boundary
type Walker struct {
	FS       billy.Filesystem
	Start    string
	Boundary string
}

// NewWalker returns a Walker over the native filesystem that starts in the current working directory and stays
// within the user's home directory.
func NewWalker() (*Walker, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Walker{
		FS:       osfs.New("/"),
		Start:    cwd,
		Boundary: xdg.Home,
	}, nil
}

// Matcher decides whether an existing entry is the one being searched for
type Matcher func(info os.FileInfo) bool

// IsFile matches regular files
func IsFile(info os.FileInfo) bool { return info.Mode().IsRegular() }

// IsAnyEntry matches whatever exists
func IsAnyEntry(info os.FileInfo) bool { return true }

// FindUpward looks for an entry called name in Start and then in each parent directory. The search stops with
// found = false once the next directory would lie outside Boundary, or at the filesystem root.
func (w *Walker) FindUpward(name string, match Matcher) (string, bool, error) {
	if w.Start == "" {
		return "", false, fmt.Errorf("no start directory")
	}

	currentDir := filepath.Clean(w.Start)
	boundary := filepath.Clean(w.Boundary)

	for {
		candidate := filepath.Join(currentDir, name)
		info, err := w.FS.Stat(candidate)
		switch {
		case err == nil && match(info):
			return candidate, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, err
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false, nil
		}
		currentDir = parentDir
		if w.Boundary == "" || !IsWithin(currentDir, boundary) {
			return "", false, nil
		}
	}
}

// FindRepoRoot returns the directory holding the closest .git entry. A .git file (worktrees, submodules) counts.
func (w *Walker) FindRepoRoot() (string, bool, error) {
	gitDir, found, err := w.FindUpward(GitDirName, IsAnyEntry)
	if err != nil || !found {
		return "", found, err
	}
	return filepath.Dir(gitDir), true, nil
}

// IsWithin reports whether dir is root or one of its descendants
func IsWithin(dir, root string) bool {
	dir = filepath.Clean(dir)
	root = filepath.Clean(root)
	if dir == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(dir, root)
}
