package componenttree

import (
	"fmt"
	"io"

	graphlib "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// WriteDOT renders the tree as a DOT digraph. Node ids are the vertex keys so
// duplicate imports of the same file stay distinct; error and cycle leaves are
// styled so they stand out in the rendered graph.
func WriteDOT(tree *Tree, w io.Writer) error {
	if tree == nil || tree.Root == nil {
		return fmt.Errorf("no tree to render")
	}

	g := graphlib.New(graphlib.StringHash, graphlib.Directed())

	if err := addVertices(g, tree.Root); err != nil {
		return err
	}
	if err := addEdges(g, tree.Root); err != nil {
		return err
	}

	return draw.DOT(g, w)
}

func addVertices(g graphlib.Graph[string, string], n *Node) error {
	attrs := []func(*graphlib.VertexProperties){
		graphlib.VertexAttribute("label", n.Name),
	}
	switch {
	case n.Error != "":
		attrs = append(attrs,
			graphlib.VertexAttribute("color", "red"),
			graphlib.VertexAttribute("style", "dashed"))
	case n.Cycle:
		attrs = append(attrs,
			graphlib.VertexAttribute("color", "orange"),
			graphlib.VertexAttribute("style", "dotted"))
	case !n.ExportsComponent:
		attrs = append(attrs, graphlib.VertexAttribute("shape", "box"))
	}

	if err := g.AddVertex(n.ID, attrs...); err != nil {
		return fmt.Errorf("failed to add vertex %s: %w", n.ID, err)
	}
	for _, child := range n.Children {
		if err := addVertices(g, child); err != nil {
			return err
		}
	}
	return nil
}

func addEdges(g graphlib.Graph[string, string], n *Node) error {
	for _, child := range n.Children {
		if err := g.AddEdge(n.ID, child.ID); err != nil {
			return fmt.Errorf("failed to add edge %s -> %s: %w", n.ID, child.ID, err)
		}
		if err := addEdges(g, child); err != nil {
			return err
		}
	}
	return nil
}
