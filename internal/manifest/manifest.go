package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NodeType is either a file or a directory.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
)

// Node is one entry of the listing. For files Path is the download location;
// for directories it is the directory's relative path.
type Node struct {
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Path     string   `json:"path"`
	Children []*Node  `json:"children,omitempty"`
}

type nodeJSON struct {
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Path     string   `json:"path"`
	Children *[]*Node `json:"children,omitempty"`
}

// MarshalJSON always emits a children array for directories, even an empty
// one, and never for files. HTML characters in URLs are left unescaped.
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{Name: n.Name, Type: n.Type, Path: n.Path}
	if n.IsDir() {
		children := n.Children
		if children == nil {
			children = []*Node{}
		}
		out.Children = &children
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n.Type == TypeDirectory
}

// Sort orders nodes in place, recursively: directories first, then files,
// each group by case-insensitive name.
func Sort(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})
	for _, n := range nodes {
		if n.IsDir() {
			Sort(n.Children)
		}
	}
}

// Marshal serializes the tree, optionally indented by two spaces.
func Marshal(nodes []*Node, indent bool) ([]byte, error) {
	if nodes == nil {
		nodes = []*Node{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(nodes); err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal parses a serialized manifest.
func Unmarshal(data []byte) ([]*Node, error) {
	var nodes []*Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return nodes, nil
}

// Count returns the number of files and directories in the tree.
func Count(nodes []*Node) (files, dirs int) {
	for _, n := range nodes {
		if n.IsDir() {
			dirs++
			f, d := Count(n.Children)
			files += f
			dirs += d
			continue
		}
		files++
	}
	return files, dirs
}
