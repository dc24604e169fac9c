package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	logger "github.com/QB2027/WebFileBrowser/internal/logging"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludeDirs are skipped unless the configuration says otherwise.
var DefaultExcludeDirs = []string{".git", ".github", ".wfb"}

// DefaultExcludeFiles are skipped unless the configuration says otherwise.
var DefaultExcludeFiles = []string{"README.md", "LICENSE", "git_sync.bat", "git_sync.sh", ".gitignore"}

// ScanOptions controls what ends up in the tree.
type ScanOptions struct {
	// ExcludeDirs and ExcludeFiles are doublestar patterns matched against
	// both the entry name and its slash-separated relative path.
	ExcludeDirs  []string
	ExcludeFiles []string

	// URLPrefix is prepended to file paths in a local scan.
	URLPrefix string

	// StripPrefix is removed from object keys before building a bucket tree.
	StripPrefix string

	Logger logger.Logger
}

// Validate checks every exclude pattern.
func (o ScanOptions) Validate() error {
	for _, p := range append(append([]string{}, o.ExcludeDirs...), o.ExcludeFiles...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// Object is one key of a bucket listing with its download URL.
type Object struct {
	Key  string
	URL  string
	Size int64
}

// ScanDirectory builds a sorted tree from the directory at root. Paths are
// relative to root and always use forward slashes. Subdirectories that cannot
// be read are logged and left empty.
func ScanDirectory(root string, opts ScanOptions) ([]*Node, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	nodes := scanEntries(root, "", entries, opts)
	Sort(nodes)
	return nodes, nil
}

func scanEntries(dir, rel string, entries []os.DirEntry, opts ScanOptions) []*Node {
	nodes := make([]*Node, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		childRel := path.Join(rel, name)
		full := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if target, err := os.Stat(full); err == nil {
				isDir = target.IsDir()
			}
		}

		if isDir {
			if excluded(opts.ExcludeDirs, name, childRel) {
				opts.Logger.Debugf("Skipping excluded directory %s", childRel)
				continue
			}
			node := &Node{Name: name, Type: TypeDirectory, Path: childRel, Children: []*Node{}}
			children, err := os.ReadDir(full)
			if err != nil {
				opts.Logger.WarnfAlways("Unable to read %s: %v", full, err)
			} else {
				node.Children = scanEntries(full, childRel, children, opts)
			}
			nodes = append(nodes, node)
			continue
		}

		if excluded(opts.ExcludeFiles, name, childRel) {
			opts.Logger.Debugf("Skipping excluded file %s", childRel)
			continue
		}
		nodes = append(nodes, &Node{Name: name, Type: TypeFile, Path: joinURL(opts.URLPrefix, childRel)})
	}
	return nodes
}

// BuildTree turns a flat bucket listing into a sorted tree. Keys ending in
// "/" are folder markers. File paths are the objects' URLs.
func BuildTree(objects []Object, opts ScanOptions) ([]*Node, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	root := &Node{Type: TypeDirectory}
	dirs := map[string]*Node{"": root}

	var ensureDir func(rel string) *Node
	ensureDir = func(rel string) *Node {
		if n, ok := dirs[rel]; ok {
			return n
		}
		parent := ensureDir(parentOf(rel))
		n := &Node{Name: path.Base(rel), Type: TypeDirectory, Path: rel, Children: []*Node{}}
		parent.Children = append(parent.Children, n)
		dirs[rel] = n
		return n
	}

	for _, obj := range objects {
		key := strings.TrimPrefix(obj.Key, opts.StripPrefix)
		key = strings.TrimLeft(key, "/")
		if key == "" {
			continue
		}

		isMarker := strings.HasSuffix(key, "/")
		key = strings.TrimRight(key, "/")
		dir := parentOf(key)
		if isMarker {
			dir = key
		}

		if dirExcluded(opts.ExcludeDirs, dir) {
			opts.Logger.Debugf("Skipping %s in excluded directory", obj.Key)
			continue
		}
		if isMarker {
			ensureDir(dir)
			continue
		}

		name := path.Base(key)
		if excluded(opts.ExcludeFiles, name, key) {
			opts.Logger.Debugf("Skipping excluded file %s", obj.Key)
			continue
		}

		location := obj.URL
		if location == "" {
			location = obj.Key
		}
		parent := ensureDir(dir)
		parent.Children = append(parent.Children, &Node{Name: name, Type: TypeFile, Path: location})
	}

	Sort(root.Children)
	return root.Children, nil
}

func parentOf(rel string) string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// dirExcluded reports whether any ancestor segment of rel is excluded.
func dirExcluded(patterns []string, rel string) bool {
	if rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	for i := range segments {
		if excluded(patterns, segments[i], strings.Join(segments[:i+1], "/")) {
			return true
		}
	}
	return false
}

func excluded(patterns []string, name, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func joinURL(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return strings.TrimRight(prefix, "/") + "/" + rel
}
