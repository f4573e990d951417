package workspace

import (
	"cmp"
	"slices"
	"strings"
)

// SplitPath returns the non-empty segments of a slash-delimited path.
func SplitPath(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." {
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}

// NormalizePath joins the segments of path with single slashes.
func NormalizePath(path string) string {
	return strings.Join(SplitPath(path), "/")
}

// BuildTree converts a flat file list into a tree. The result does not
// depend on input order: shared prefixes become one folder, a path used both
// as a folder and a file stays a folder, and children list folders first,
// then by name.
func BuildTree(files []File) []*Node {
	sorted := make([]File, 0, len(files))
	for _, f := range files {
		path := NormalizePath(f.Path)
		if path == "" {
			continue
		}
		sorted = append(sorted, File{Path: path, Language: f.Language})
	}
	slices.SortFunc(sorted, func(a, b File) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Language, b.Language))
	})

	root := &Node{Type: TypeFolder}
	index := map[string]*Node{"": root}

	for _, f := range sorted {
		segs := strings.Split(f.Path, "/")
		parent := root
		for i, seg := range segs[:len(segs)-1] {
			path := strings.Join(segs[:i+1], "/")
			node, ok := index[path]
			if !ok {
				node = &Node{Name: seg, Path: path, Type: TypeFolder}
				index[path] = node
				parent.Children = append(parent.Children, node)
			} else if node.Type == TypeFile {
				node.Type = TypeFolder
				node.Language = ""
			}
			parent = node
		}

		if node, ok := index[f.Path]; ok {
			if node.Type == TypeFile && node.Language == "" {
				node.Language = f.Language
			}
			continue
		}
		lang := f.Language
		if lang == "" {
			lang = DetectLanguage(f.Path)
		}
		node := &Node{Name: segs[len(segs)-1], Path: f.Path, Type: TypeFile, Language: lang}
		index[f.Path] = node
		parent.Children = append(parent.Children, node)
	}

	sortNodes(root.Children)
	return root.Children
}

func sortNodes(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		if a.Type != b.Type {
			if a.Type == TypeFolder {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	for _, n := range nodes {
		if n.Type == TypeFolder {
			sortNodes(n.Children)
		}
	}
}

// Flatten lists the files of a tree depth first.
func Flatten(nodes []*Node) []File {
	var out []File
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.Type == TypeFolder {
				walk(n.Children)
				continue
			}
			out = append(out, File{Path: n.Path, Language: n.Language})
		}
	}
	walk(nodes)
	return out
}

// Find returns the node at path, or nil.
func Find(nodes []*Node, path string) *Node {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return nil
	}
	level := nodes
	var found *Node
	for _, seg := range segs {
		found = nil
		for _, n := range level {
			if n.Name == seg {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		level = found.Children
	}
	return found
}

func cloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		c := *n
		c.Children = cloneNodes(n.Children)
		out[i] = &c
	}
	return out
}
