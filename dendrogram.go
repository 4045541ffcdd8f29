package consensus

import (
	"fmt"
	"strconv"
	"strings"
)

// noChild marks an absent child in a Node.
const noChild = -1

// Node is one node of the merge dendrogram. Leaves correspond to input
// observations, internal nodes to consensus observations.
type Node struct {
	// ID is the node's index in its Dendrogram. Input observation i has
	// ID i; the k-th consensus has ID n+k.
	ID          int
	Observation *Observation

	// Left and Right are child node IDs, or -1.
	Left, Right int

	// Distance is the accumulated consensus distance: half the RMSD of
	// the merge that consumed this node.
	Distance float64

	// RMSD is the RMSD of the merge that created this node. It is 0 for
	// leaves.
	RMSD float64
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.Left == noChild && n.Right == noChild }

// Dendrogram is an arena of merge tree nodes. Trees are addressed by the
// ID of their root node.
type Dendrogram struct {
	nodes  []Node
	leaves int
	// forest holds the root of each tree created by a merge, in creation
	// order.
	forest []int
}

func newDendrogram(observations []*Observation) *Dendrogram {
	n := len(observations)
	d := &Dendrogram{
		nodes:  make([]Node, n, max(2*n-1, 1)),
		leaves: n,
		forest: make([]int, 0, max(n-1, 0)),
	}
	for i, o := range observations {
		d.nodes[i] = Node{ID: i, Observation: o, Left: noChild, Right: noChild}
	}
	return d
}

// merge adds a consensus node with the given children and returns its ID.
func (d *Dendrogram) merge(consensus *Observation, left, right int, rmsd float64) int {
	id := len(d.nodes)
	d.nodes = append(d.nodes, Node{ID: id, Observation: consensus, Left: left, Right: right, RMSD: rmsd})
	d.forest = append(d.forest, id)
	return id
}

// Len returns the number of nodes.
func (d *Dendrogram) Len() int { return len(d.nodes) }

// NumLeaves returns the number of input observations.
func (d *Dendrogram) NumLeaves() int { return d.leaves }

// Node returns the node with the given ID. The pointer is valid until the
// dendrogram grows.
func (d *Dendrogram) Node(id int) *Node { return &d.nodes[id] }

// Forest returns the roots of all trees created by merging, in creation
// order. The last one is the root of the complete dendrogram.
func (d *Dendrogram) Forest() []int {
	out := make([]int, len(d.forest))
	copy(out, d.forest)
	return out
}

// Root returns the ID of the complete dendrogram's root. With a single
// input observation the root is that observation's leaf.
func (d *Dendrogram) Root() int {
	if len(d.forest) == 0 {
		return 0
	}
	return d.forest[len(d.forest)-1]
}

// Leaves returns the IDs of the leaf nodes under id, left to right.
func (d *Dendrogram) Leaves(id int) []int {
	var out []int
	stack := []int{id}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &d.nodes[top]
		if n.IsLeaf() {
			out = append(out, top)
			continue
		}
		// Push right first so that left is visited first.
		if n.Right != noChild {
			stack = append(stack, n.Right)
		}
		if n.Left != noChild {
			stack = append(stack, n.Left)
		}
	}
	return out
}

// Linkage returns the merge history in scipy linkage format: one row
// [left, right, rmsd, size] per merge, in merge order.
func (d *Dendrogram) Linkage() [][4]float64 {
	if len(d.forest) == 0 {
		return nil
	}
	size := make([]int, len(d.nodes))
	for i := 0; i < d.leaves; i++ {
		size[i] = 1
	}
	rows := make([][4]float64, 0, len(d.forest))
	for _, id := range d.forest {
		n := &d.nodes[id]
		size[id] = size[n.Left] + size[n.Right]
		rows = append(rows, [4]float64{float64(n.Left), float64(n.Right), n.RMSD, float64(size[id])})
	}
	return rows
}

// Newick renders the subtree under id in Newick format. Leaves are labeled
// with their observation's name, or their ID when unnamed. Branch lengths
// are the nodes' consensus distances.
func (d *Dendrogram) Newick(id int) string {
	var b strings.Builder
	var out func(id int, root bool)
	out = func(id int, root bool) {
		n := &d.nodes[id]
		if !n.IsLeaf() {
			b.WriteByte('(')
			out(n.Left, false)
			b.WriteByte(',')
			out(n.Right, false)
			b.WriteByte(')')
		} else {
			b.WriteString(newickLabel(n))
		}
		if !root {
			fmt.Fprintf(&b, ":%s", strconv.FormatFloat(n.Distance, 'g', 6, 64))
		}
	}
	out(id, true)
	b.WriteByte(';')
	return b.String()
}

func newickLabel(n *Node) string {
	if n.Observation == nil || n.Observation.Name == "" {
		return strconv.Itoa(n.ID)
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', ',', ':', ';', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, n.Observation.Name)
}
