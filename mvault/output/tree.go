// Package output renders run results for the terminal.
package output

import (
	"path/filepath"
	"strings"

	"github.com/disiqueira/gotree/v3"
)

// FileTree renders a set of paths below a root as an indented tree.
type FileTree struct {
	root string
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

// NewFileTree returns an empty tree labelled with root.
func NewFileTree(root string) *FileTree {
	return &FileTree{
		root: filepath.Clean(root),
		tree: gotree.New(filepath.Clean(root)),
		dirs: make(map[string]gotree.Tree),
	}
}

func (t *FileTree) getDir(dirPath string) gotree.Tree {
	if dirPath == "." {
		return t.tree
	}
	dir := t.dirs[dirPath]
	if dir == nil {
		dir = t.getDir(filepath.Dir(dirPath)).Add(filepath.Base(dirPath))
		t.dirs[dirPath] = dir
	}
	return dir
}

// Insert adds filePath with an optional label suffix. Paths outside the root
// are listed under their absolute name.
func (t *FileTree) Insert(filePath, suffix string) {
	rel, err := filepath.Rel(t.root, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		t.tree.Add(filePath + suffix)
		return
	}
	t.getDir(filepath.Dir(rel)).Add(filepath.Base(rel) + suffix)
}

// Render returns the tree as text.
func (t *FileTree) Render() string {
	return t.tree.Print()
}
