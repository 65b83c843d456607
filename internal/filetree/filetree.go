// Package filetree walks a repository checkout and produces the file-tree
// summary and the descriptors fed to the code-graph builder.
package filetree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dusk-indust/codegenius/internal/graph"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{
	".git", "__pycache__", "node_modules", "venv", "env", ".idea", "build", "dist",
}

// ReadmeNames are the file names FindReadme accepts, in no particular
// priority; the first match in walk order wins.
var ReadmeNames = []string{"README.md", "README.txt", "README", "readme.md"}

// mainDirDepth bounds MainDirectories; the root is depth 0.
const mainDirDepth = 2

// Node is one entry of the walked tree. Path is slash-separated and relative
// to the walk root ("" for the root itself).
type Node struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Dir       bool    `json:"dir"`
	Extension string  `json:"extension,omitempty"`
	Children  []*Node `json:"children,omitempty"`
}

// Tree is the result of a walk.
type Tree struct {
	Root    string `json:"root"`
	Node    *Node  `json:"tree"`
	files   []*Node
	dirs    int
	maxSize int64
}

// Options configures a Walker.
type Options struct {
	// ExcludeDirs are extra directory names to skip, on top of DefaultSkipDirs.
	ExcludeDirs []string
	// ExcludeGlobs are doublestar patterns matched against slash-separated
	// paths relative to the root. Directories are also tried with a
	// trailing "/".
	ExcludeGlobs []string
	// IncludeHidden keeps entries whose name starts with ".". The .git
	// directory is skipped regardless.
	IncludeHidden bool
	// MaxFileSize caps every file read made through the Tree, in bytes.
	// Zero means no limit.
	MaxFileSize int64
	Logger      *slog.Logger
}

// Walker builds Trees.
type Walker struct {
	skip          map[string]bool
	excludes      []string
	includeHidden bool
	maxSize       int64
	logger        *slog.Logger
}

// NewWalker returns a Walker for opts.
func NewWalker(opts Options) *Walker {
	w := &Walker{
		skip:          make(map[string]bool, len(DefaultSkipDirs)+len(opts.ExcludeDirs)),
		excludes:      opts.ExcludeGlobs,
		includeHidden: opts.IncludeHidden,
		maxSize:       opts.MaxFileSize,
		logger:        opts.Logger,
	}
	for _, d := range DefaultSkipDirs {
		w.skip[d] = true
	}
	for _, d := range opts.ExcludeDirs {
		w.skip[d] = true
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Walk builds the tree under root. Children are visited in name order so the
// result is deterministic. Unreadable subdirectories are skipped.
func (w *Walker) Walk(ctx context.Context, root string) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walk %s: not a directory", abs)
	}

	t := &Tree{Root: abs, Node: &Node{Name: filepath.Base(abs), Dir: true}, maxSize: w.maxSize}
	if err := w.build(ctx, t, abs, t.Node); err != nil {
		return nil, err
	}
	return t, nil
}

func (w *Walker) build(ctx context.Context, t *Tree, dir string, node *Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if node.Path == "" {
			return fmt.Errorf("read root: %w", err)
		}
		w.logger.Debug("filetree.skip_dir", "path", node.Path, "err", err)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		rel := path.Join(node.Path, name)
		if w.excluded(name, rel, entry.IsDir()) {
			continue
		}

		if entry.IsDir() {
			child := &Node{Name: name, Path: rel, Dir: true}
			node.Children = append(node.Children, child)
			t.dirs++
			if err := w.build(ctx, t, filepath.Join(dir, name), child); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		child := &Node{Name: name, Path: rel, Extension: filepath.Ext(name)}
		node.Children = append(node.Children, child)
		t.files = append(t.files, child)
	}
	return nil
}

func (w *Walker) excluded(name, rel string, dir bool) bool {
	if name == ".git" {
		return true
	}
	if strings.HasPrefix(name, ".") && !w.includeHidden {
		return true
	}
	if dir && w.skip[name] {
		return true
	}
	for _, pattern := range w.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if dir {
			if ok, err := doublestar.Match(pattern, rel+"/"); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// FileCount is the number of files in the whole tree.
func (t *Tree) FileCount() int { return len(t.files) }

// DirCount is the number of directories below the root.
func (t *Tree) DirCount() int { return t.dirs }

// Files returns relative file paths in walk order.
func (t *Tree) Files() []string {
	out := make([]string, len(t.files))
	for i, f := range t.files {
		out[i] = f.Path
	}
	return out
}

// Extensions counts files per extension ("" for none).
func (t *Tree) Extensions() map[string]int {
	out := make(map[string]int)
	for _, f := range t.files {
		out[strings.ToLower(f.Extension)]++
	}
	return out
}

// MainDirectories lists directory names down to depth 2 in walk order,
// starting with the root's own name.
func (t *Tree) MainDirectories() []string {
	var out []string
	var collect func(n *Node, depth int)
	collect = func(n *Node, depth int) {
		if !n.Dir || depth > mainDirDepth {
			return
		}
		out = append(out, n.Name)
		for _, c := range n.Children {
			collect(c, depth+1)
		}
	}
	collect(t.Node, 0)
	return out
}

// Descriptors returns one graph.Descriptor per file, in walk order. Content is
// not read here: each descriptor loads its file through ReadFile when the
// builder gets to it.
func (t *Tree) Descriptors() []graph.Descriptor {
	descs := make([]graph.Descriptor, 0, len(t.files))
	for _, f := range t.files {
		rel := f.Path
		descs = append(descs, graph.Descriptor{
			Path:      rel,
			Extension: f.Extension,
			Load:      func() ([]byte, error) { return t.ReadFile(rel) },
		})
	}
	return descs
}

// ReadFile reads a file by its tree path. Reads stop after the tree's size
// limit; a longer file yields graph.ErrTooLarge.
func (t *Tree) ReadFile(rel string) ([]byte, error) {
	f, err := os.Open(t.abs(rel))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if t.maxSize <= 0 {
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(f, t.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > t.maxSize {
		return nil, fmt.Errorf("%w: %s is over %d bytes", graph.ErrTooLarge, rel, t.maxSize)
	}
	return data, nil
}

// ErrNoReadme is returned by FindReadme when no readable README exists.
var ErrNoReadme = errors.New("no readme found")

// FindReadme returns the path and decoded text of the first README in walk
// order. Undecodable, oversized or empty candidates are passed over.
func (t *Tree) FindReadme() (string, string, error) {
	for _, f := range t.files {
		if !isReadme(f.Name) {
			continue
		}
		content, err := t.ReadFile(f.Path)
		if err != nil {
			continue
		}
		text, _, err := graph.Decode(content)
		if err != nil || text == "" {
			continue
		}
		return f.Path, text, nil
	}
	return "", "", ErrNoReadme
}

func isReadme(name string) bool {
	for _, n := range ReadmeNames {
		if n == name {
			return true
		}
	}
	return false
}

func (t *Tree) abs(rel string) string {
	return filepath.Join(t.Root, filepath.FromSlash(rel))
}

// Summary is the serializable overview of a Tree.
type Summary struct {
	Root            string         `json:"root"`
	FileCount       int            `json:"fileCount"`
	DirCount        int            `json:"dirCount"`
	Extensions      map[string]int `json:"extensions"`
	MainDirectories []string       `json:"mainDirectories"`
}

// Summary reports counts and the top-level layout.
func (t *Tree) Summary() Summary {
	return Summary{
		Root:            t.Root,
		FileCount:       t.FileCount(),
		DirCount:        t.DirCount(),
		Extensions:      t.Extensions(),
		MainDirectories: t.MainDirectories(),
	}
}

// TopExtensions returns extensions ordered by file count, then name.
func (s Summary) TopExtensions(n int) []string {
	exts := make([]string, 0, len(s.Extensions))
	for ext := range s.Extensions {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		ci, cj := s.Extensions[exts[i]], s.Extensions[exts[j]]
		if ci != cj {
			return ci > cj
		}
		return exts[i] < exts[j]
	})
	if n > 0 && len(exts) > n {
		exts = exts[:n]
	}
	return exts
}
