package componenttree

import (
	"errors"
	"path/filepath"
	"strconv"
	"sync/atomic"
)

// Builder constructs and incrementally rebuilds component trees. Node ids are
// minted from a monotonic counter, so ids stay unique for the lifetime of the
// builder and stable across a Build -> RebuildSubtree sequence.
type Builder struct {
	ws     Workspace
	nextID atomic.Int64
}

func NewBuilder(ws Workspace) *Builder {
	return &Builder{ws: ws}
}

func (b *Builder) mintID() string {
	return "n" + strconv.FormatInt(b.nextID.Add(1), 10)
}

// Build performs a full depth-first traversal from entryFile. Per-node
// resolution and analysis failures become error leaves; only alias table
// construction can fail the whole build.
func (b *Builder) Build(entryFile string, settings Settings) (*Tree, error) {
	aliases, err := BuildAliasTable(settings, b.ws)
	if err != nil {
		return nil, err
	}
	resolver := NewResolver(settings, aliases, b.ws)

	root := b.buildNode(entryFile, resolver, settings, map[string]bool{})
	root.Expanded = true
	return &Tree{EntryFilePath: entryFile, Root: root}, nil
}

// buildNode analyzes one file and recurses into its resolved imports. onPath
// is the set of file paths on the current recursion path; a repeat occurrence
// becomes a cycle leaf instead of recursing.
func (b *Builder) buildNode(path string, resolver *Resolver, settings Settings, onPath map[string]bool) *Node {
	node := &Node{
		ID:       b.mintID(),
		FilePath: path,
		Name:     displayBaseName(path),
	}

	if onPath[path] {
		node.Cycle = true
		return node
	}

	content, err := b.ws.ReadFile(path)
	if err != nil {
		node.Error = NodeErrorFileNotFound
		return node
	}

	analysis, err := Analyze(content, path)
	if err != nil {
		node.Error = NodeErrorUnparseableSource
		return node
	}
	if analysis.DisplayName != "" {
		node.Name = analysis.DisplayName
	}
	node.ExportsComponent = analysis.ExportsComponent

	onPath[path] = true
	defer delete(onPath, path)

	for _, specifier := range analysis.Imports {
		childPath, err := resolver.Resolve(specifier, path)

		var resolutionErr *ResolutionError
		switch {
		case errors.Is(err, ErrExternalModule):
			continue
		case errors.As(err, &resolutionErr):
			node.Children = append(node.Children, &Node{
				ID:       b.mintID(),
				FilePath: childPath,
				Name:     specifier,
				Error:    resolutionErr.Kind,
			})
		case err == nil:
			if !isSupportedSourceFile(childPath) {
				continue
			}
			child := b.buildNode(childPath, resolver, settings, onPath)
			if !settings.IncludeNonComponents && isPlainFileNode(child) {
				continue
			}
			node.Children = append(node.Children, child)
		}
	}

	return node
}

// isPlainFileNode reports whether a node is an ordinary non-component file,
// as opposed to a component, an error leaf, or a cycle leaf.
func isPlainFileNode(n *Node) bool {
	return !n.ExportsComponent && !n.Cycle && n.Error == ""
}

// RebuildSubtree re-analyzes every node whose file path equals changedFile and
// replaces its subtree. The changed node keeps its id and expanded flag;
// descendants are matched by file path (not position) so unrelated reordering
// does not discard their state. Nodes for files no longer imported are
// dropped; newly imported files get fresh ids, collapsed by default.
func (b *Builder) RebuildSubtree(tree *Tree, changedFile string, settings Settings) (*Tree, error) {
	if tree == nil || tree.Root == nil {
		return tree, nil
	}

	aliases, err := BuildAliasTable(settings, b.ws)
	if err != nil {
		return nil, err
	}
	resolver := NewResolver(settings, aliases, b.ws)

	root := b.rebuildNode(tree.Root, changedFile, resolver, settings, map[string]bool{})
	return &Tree{EntryFilePath: tree.EntryFilePath, Root: root}, nil
}

func (b *Builder) rebuildNode(old *Node, changedFile string, resolver *Resolver, settings Settings, onPath map[string]bool) *Node {
	if old.FilePath == changedFile && !old.Cycle {
		fresh := b.buildNode(old.FilePath, resolver, settings, onPath)
		adoptIdentity(old, fresh)
		return fresh
	}

	node := *old
	node.Children = nil

	onPath[old.FilePath] = true
	for _, child := range old.Children {
		node.Children = append(node.Children, b.rebuildNode(child, changedFile, resolver, settings, onPath))
	}
	delete(onPath, old.FilePath)

	return &node
}

// adoptIdentity carries id and expand state from an old subtree onto a freshly
// built one. Children are matched by file path; duplicate imports of the same
// file are matched in order of appearance.
func adoptIdentity(old, fresh *Node) {
	fresh.ID = old.ID
	fresh.Expanded = old.Expanded

	claimed := make([]bool, len(old.Children))
	for _, freshChild := range fresh.Children {
		for i, oldChild := range old.Children {
			if claimed[i] || !sameNodeFile(oldChild, freshChild) {
				continue
			}
			claimed[i] = true
			adoptIdentity(oldChild, freshChild)
			break
		}
	}
}

// sameNodeFile matches children by file path. Unresolvable error leaves all
// have an empty file path, so they are matched by specifier instead.
func sameNodeFile(a, b *Node) bool {
	if a.FilePath != b.FilePath {
		return false
	}
	if a.FilePath == "" {
		return a.Name == b.Name
	}
	return true
}

func displayBaseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
