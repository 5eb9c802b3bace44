package cluster

import "sort"

// DisjointSet is a union-find structure keyed by stable record ids, with
// path compression. State is per-instance so a pipeline run never leaks
// parent pointers into the next batch.
type DisjointSet struct {
	parent map[string]string
}

// NewDisjointSet creates an empty disjoint-set.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{parent: make(map[string]string)}
}

// Find returns the representative of x, adding x as its own component if it
// has not been seen before.
func (d *DisjointSet) Find(x string) string {
	root, ok := d.parent[x]
	if !ok {
		d.parent[x] = x
		return x
	}
	if root == x {
		return x
	}
	top := d.Find(root)
	d.parent[x] = top
	return top
}

// Union merges the components containing a and b.
func (d *DisjointSet) Union(a, b string) {
	ra, rb := d.Find(a), d.Find(b)
	if ra != rb {
		d.parent[ra] = rb
	}
}

// Components returns every component as a sorted member list, ordered by
// each component's smallest member id. Only ids that were passed to Find or
// Union appear.
func (d *DisjointSet) Components() [][]string {
	byRoot := make(map[string][]string)
	for id := range d.parent {
		root := d.Find(id)
		byRoot[root] = append(byRoot[root], id)
	}

	components := make([][]string, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Strings(members)
		components = append(components, members)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}
