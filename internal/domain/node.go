// Package domain defines core entities and value objects for the command center.
//
// This file contains the virtual filesystem tree the local interpreter resolves
// paths against. The tree is plain owned data: every directory owns its children
// and no node keeps a reference to its parent, so parent traversal is always
// computed from the path string.
package domain

// NodeKind tags the variant of a Node.
type NodeKind int

const (
	// KindFile marks a leaf carrying text content.
	KindFile NodeKind = iota
	// KindDir marks a directory with ordered children.
	KindDir
)

// String returns the storage-facing name of the kind ("file" or "dir").
func (k NodeKind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// Node is a virtual filesystem entry, either a file or a directory.
type Node struct {
	kind     NodeKind
	content  string
	names    []string
	children map[string]*Node
}

// NamedNode pairs a child name with its node for directory construction.
type NamedNode struct {
	Name string
	Node *Node
}

// Entry is a shorthand constructor for NamedNode.
func Entry(name string, node *Node) NamedNode {
	return NamedNode{Name: name, Node: node}
}

// NewFile builds a file node.
func NewFile(content string) *Node {
	return &Node{kind: KindFile, content: content}
}

// NewDir builds a directory node. Children keep the order they are given in;
// a repeated name replaces the earlier node but keeps its original position.
func NewDir(children ...NamedNode) *Node {
	dir := &Node{kind: KindDir, children: make(map[string]*Node, len(children))}
	for _, child := range children {
		if child.Node == nil || child.Name == "" {
			continue
		}
		if _, exists := dir.children[child.Name]; !exists {
			dir.names = append(dir.names, child.Name)
		}
		dir.children[child.Name] = child.Node
	}
	return dir
}

// Kind reports the node variant.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n != nil && n.kind == KindDir
}

// IsFile reports whether the node is a file.
func (n *Node) IsFile() bool {
	return n != nil && n.kind == KindFile
}

// Content returns the file content; directories return "".
func (n *Node) Content() string {
	if n.kind != KindFile {
		return ""
	}
	return n.content
}

// Child looks up a direct child by name.
func (n *Node) Child(name string) (*Node, bool) {
	if n.kind != KindDir {
		return nil, false
	}
	child, ok := n.children[name]
	return child, ok
}

// ChildNames returns child names in insertion order.
func (n *Node) ChildNames() []string {
	if n.kind != KindDir {
		return nil
	}
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

// Len returns the number of children of a directory.
func (n *Node) Len() int {
	return len(n.names)
}

// Walk resolves a sequence of segments starting at n. It fails with
// ErrPathNotFound when a segment is missing or when it would descend into a file.
func (n *Node) Walk(segments []string) (*Node, error) {
	current := n
	for _, segment := range segments {
		if !current.IsDir() {
			return nil, ErrPathNotFound
		}
		next, ok := current.children[segment]
		if !ok {
			return nil, ErrPathNotFound
		}
		current = next
	}
	return current, nil
}

// DefaultTree returns the demo tree mounted at HomePath.
func DefaultTree() *Node {
	return NewDir(
		Entry("documents", NewDir(
			Entry("notes.txt", NewFile("Some important notes")),
			Entry("report.pdf", NewFile("PDF Content")),
		)),
		Entry("pictures", NewDir(
			Entry("vacation.jpg", NewFile("Image data")),
		)),
		Entry("hello.txt", NewFile("Hello, World!")),
	)
}
