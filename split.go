package consensus

import "math"

// Cluster is a subtree of the dendrogram.
type Cluster struct {
	// Root is the node ID of the cluster's consensus.
	Root int
	// Members are the IDs of the input observations in the cluster.
	Members []int
}

// Size returns the number of input observations in c.
func (c Cluster) Size() int { return len(c.Members) }

// Split cuts the subtree under root into clusters. A node is split into
// its two children whenever either child's consensus distance exceeds
// cutoff; children are examined again after every split. The clusters
// partition the leaves under root and are returned left to right.
func Split(d *Dendrogram, root int, cutoff float64) []Cluster {
	var clusters []Cluster
	stack := []int{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := d.Node(id)
		if childDistance(d, n.Left) > cutoff || childDistance(d, n.Right) > cutoff {
			// Push right first so that left is visited first.
			for _, c := range []int{n.Right, n.Left} {
				if c != noChild {
					stack = append(stack, c)
				}
			}
			continue
		}
		clusters = append(clusters, Cluster{Root: id, Members: d.Leaves(id)})
	}
	return clusters
}

// MinBranchDistance returns the smallest positive consensus distance in
// the subtree under root, or +Inf if every branch has zero distance. Any
// cutoff below it splits the root.
func MinBranchDistance(d *Dendrogram, root int) float64 {
	best := math.Inf(1)
	stack := []int{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := d.Node(id)
		if id != root && n.Distance > 0 && n.Distance < best {
			best = n.Distance
		}
		if !n.IsLeaf() {
			stack = append(stack, n.Left, n.Right)
		}
	}
	return best
}

func childDistance(d *Dendrogram, id int) float64 {
	if id == noChild {
		return 0
	}
	return d.Node(id).Distance
}
