// Package workspace tracks the folders open in the editor, resolves file
// languages from explicit suffix registrations, and builds the variable
// context task resolution runs against.
package workspace

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/dshills/taskpick/internal/task"
)

// Common errors.
var (
	ErrNoFolders      = errors.New("workspace has no folders")
	ErrFolderNotFound = errors.New("folder not found in workspace")
	ErrFolderExists   = errors.New("folder already in workspace")
	ErrInvalidPath    = errors.New("invalid folder path")
)

// Folder is a single root folder open in the workspace. Its ID is the
// worktree identifier task sources and the inventory group by.
type Folder struct {
	// ID identifies the folder's worktree.
	ID task.WorktreeID

	// Path is the absolute file system path of the folder root.
	Path string

	// Name is the display name, normally the base of Path.
	Name string
}

// Workspace is a collection of root folders. It supports both single-root
// and multi-root layouts and is safe for concurrent use.
type Workspace struct {
	mu      sync.RWMutex
	folders []Folder
	nextID  task.WorktreeID
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{nextID: 1}
}

// NewFromPaths creates a workspace with one folder per path.
func NewFromPaths(paths ...string) (*Workspace, error) {
	if len(paths) == 0 {
		return nil, ErrNoFolders
	}

	w := New()
	for _, path := range paths {
		if _, err := w.AddFolder(path); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// AddFolder adds a root folder and assigns it a worktree ID. The path is
// made absolute; adding a path already in the workspace is an error.
func (w *Workspace) AddFolder(path string) (Folder, error) {
	if path == "" {
		return Folder{}, ErrInvalidPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Folder{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, folder := range w.folders {
		if folder.Path == absPath {
			return Folder{}, ErrFolderExists
		}
	}

	folder := Folder{
		ID:   w.nextID,
		Path: absPath,
		Name: filepath.Base(absPath),
	}
	w.nextID++
	w.folders = append(w.folders, folder)
	return folder, nil
}

// RemoveFolder removes a folder by worktree ID.
func (w *Workspace) RemoveFolder(id task.WorktreeID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, folder := range w.folders {
		if folder.ID == id {
			w.folders = append(w.folders[:i], w.folders[i+1:]...)
			return nil
		}
	}
	return ErrFolderNotFound
}

// Folders returns the folders in the order they were added.
func (w *Workspace) Folders() []Folder {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Folder, len(w.folders))
	copy(out, w.folders)
	return out
}

// Folder returns the folder with the given worktree ID.
func (w *Workspace) Folder(id task.WorktreeID) (Folder, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, folder := range w.folders {
		if folder.ID == id {
			return folder, true
		}
	}
	return Folder{}, false
}

// FolderFor returns the folder containing the given file path. When folders
// nest, the deepest containing root wins.
func (w *Workspace) FolderFor(path string) (Folder, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Folder{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	var best Folder
	found := false
	for _, folder := range w.folders {
		if !containsPath(folder.Path, absPath) {
			continue
		}
		if !found || len(folder.Path) > len(best.Path) {
			best = folder
			found = true
		}
	}
	return best, found
}

// containsPath reports whether file is root itself or lies under it.
func containsPath(root, file string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !isParentRef(rel))
}

func isParentRef(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
