package workspace

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestBuildTree_Shape(t *testing.T) {
	tree := BuildTree([]File{
		{Path: "src/main.go"},
		{Path: "README.md"},
		{Path: "src/internal/util.go"},
		{Path: "src/app.go"},
		{Path: "docs/guide.md"},
	})

	require.Equal(t, []string{"docs", "src", "README.md"}, names(tree))
	src := tree[1]
	require.Equal(t, TypeFolder, src.Type)
	require.Equal(t, "src", src.Path)
	require.Equal(t, []string{"internal", "app.go", "main.go"}, names(src.Children))
	require.Equal(t, "src/internal/util.go", src.Children[0].Children[0].Path)
	require.Equal(t, "go", src.Children[1].Language)
}

func TestBuildTree_OrderIndependent(t *testing.T) {
	files := []File{
		{Path: "a/b/c.txt"},
		{Path: "a/b/d.txt"},
		{Path: "a/e.py", Language: "python"},
		{Path: "f.json"},
		{Path: "a/b"},
		{Path: "g/h/i/j.ts"},
	}
	want := BuildTree(files)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]File(nil), files...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, want, BuildTree(shuffled))
	}
}

func TestBuildTree_FolderBeatsFile(t *testing.T) {
	tree := BuildTree([]File{{Path: "a/b"}, {Path: "a/b/c.go"}})
	b := Find(tree, "a/b")
	require.NotNil(t, b)
	require.Equal(t, TypeFolder, b.Type)
	require.Equal(t, []File{{Path: "a/b/c.go", Language: "go"}}, Flatten(tree))
}

func TestBuildTree_NoDuplicateFolders(t *testing.T) {
	tree := BuildTree([]File{{Path: "x/1.go"}, {Path: "x/2.go"}, {Path: "x/1.go"}})
	require.Len(t, tree, 1)
	require.Equal(t, []string{"1.go", "2.go"}, names(tree[0].Children))
}

func TestBuildTree_IgnoresEmptySegments(t *testing.T) {
	tree := BuildTree([]File{{Path: "/a//b.go/"}, {Path: ""}, {Path: "///"}})
	require.Len(t, tree, 1)
	require.Equal(t, "a/b.go", tree[0].Children[0].Path)
}

func TestFlatten_RoundTrip(t *testing.T) {
	files := []File{
		{Path: "z.md"},
		{Path: "lib/x/y.rb"},
		{Path: "lib/x"},
		{Path: "lib/a.rb", Language: "ruby"},
		{Path: "bin//run.sh"},
	}
	tree := BuildTree(files)
	require.Equal(t, tree, BuildTree(Flatten(tree)))
}

func TestFind(t *testing.T) {
	tree := BuildTree([]File{{Path: "a/b/c.go"}})
	require.Equal(t, "c.go", Find(tree, "/a/b/c.go").Name)
	require.Nil(t, Find(tree, "a/x"))
	require.Nil(t, Find(tree, ""))
}

func TestPlaceholder(t *testing.T) {
	require.Equal(t, "// src/main.go\n// This file has not been generated yet.\n", Placeholder("src/main.go", ""))
	require.Contains(t, Placeholder("app.py", ""), "# app.py")
	require.Contains(t, Placeholder("index.html", ""), "<!-- index.html -->")
	require.Contains(t, Placeholder("site.css", ""), "/* site.css */")
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, "go", DetectLanguage("cmd/main.go"))
	require.Equal(t, "python", DetectLanguage("app.py"))
	require.Equal(t, "", DetectLanguage("LICENSE.unknownext"))
}
