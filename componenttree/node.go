package componenttree

// Node is a single file in the component tree. The same file imported from
// two different parents appears as two distinct nodes with distinct ids.
type Node struct {
	ID               string    `json:"id"`
	FilePath         string    `json:"filePath"`
	Name             string    `json:"name"`
	Children         []*Node   `json:"children"`
	Expanded         bool      `json:"expanded"`
	ExportsComponent bool      `json:"exportsComponent"`
	Cycle            bool      `json:"cycle,omitempty"`
	Error            NodeError `json:"error,omitempty"`
}

// Tree is the persisted and transmitted shape of a parse result.
type Tree struct {
	EntryFilePath string `json:"entryFilePath"`
	Root          *Node  `json:"root"`
}

// Find returns the node with the given id, or nil if no such node exists.
func (t *Tree) Find(id string) *Node {
	if t == nil {
		return nil
	}
	return findNode(t.Root, id)
}

func findNode(n *Node, id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := findNode(child, id); found != nil {
			return found
		}
	}
	return nil
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	return &Tree{
		EntryFilePath: t.EntryFilePath,
		Root:          t.Root.clone(),
	}
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	copied := *n
	copied.Children = nil
	for _, child := range n.Children {
		copied.Children = append(copied.Children, child.clone())
	}
	return &copied
}
