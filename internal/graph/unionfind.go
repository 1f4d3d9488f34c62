package graph

// UnionFind implements union-find over section indices with path compression
// and union by rank
type UnionFind struct {
	parent []int
	rank   []int
	size   []int
}

// NewUnionFind creates a new UnionFind where each of n elements is its own component
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the root of the component containing i, with path compression
func (uf *UnionFind) Find(i int) int {
	if i < 0 || i >= len(uf.parent) {
		return i
	}
	root := i
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[i] != root {
		next := uf.parent[i]
		uf.parent[i] = root
		i = next
	}
	return root
}

// Union merges the components containing a and b. Returns true if they were separate.
func (uf *UnionFind) Union(a, b int) bool {
	rootA := uf.Find(a)
	rootB := uf.Find(b)
	if rootA == rootB {
		return false
	}

	switch {
	case uf.rank[rootA] < uf.rank[rootB]:
		rootA, rootB = rootB, rootA
	case uf.rank[rootA] == uf.rank[rootB]:
		uf.rank[rootA]++
	}
	uf.parent[rootB] = rootA
	uf.size[rootA] += uf.size[rootB]
	return true
}

// Size returns the number of elements in i's component
func (uf *UnionFind) Size(i int) int {
	return uf.size[uf.Find(i)]
}

// Components returns all connected components, each sorted, in order of
// their smallest member
func (uf *UnionFind) Components() [][]int {
	index := make(map[int]int)
	var result [][]int
	for i := range uf.parent {
		root := uf.Find(i)
		k, ok := index[root]
		if !ok {
			k = len(result)
			index[root] = k
			result = append(result, nil)
		}
		result[k] = append(result[k], i)
	}
	return result
}
