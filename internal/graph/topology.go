package graph

import (
	"sort"
	"strconv"
)

// DegreeBucket is one bucket in a histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalSections     int            `json:"total_sections"`
	TotalEdges        int            `json:"total_edges"`
	TotalLength       float64        `json:"total_length"`
	Roots             int            `json:"roots"`
	Leaves            int            `json:"leaves"`
	Bifurcations      int            `json:"bifurcations"`
	Multifurcations   int            `json:"multifurcations"`
	Unifurcations     int            `json:"unifurcations"`
	UnifurcationIDs   []int          `json:"unifurcation_ids"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	OrphanCount       int            `json:"orphan_count"`
	MaxBranchOrder    int            `json:"max_branch_order"`
	BranchOrders      []DegreeBucket `json:"branch_orders"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	TypeCounts        map[string]int `json:"type_counts"`
}

// ComputeTopology counts roots, leaves and forks, finds connected components
// and builds the branch order and fan-out histograms. At most topN
// unifurcation indices are listed.
func ComputeTopology(snap *Snapshot, topN int) *TopologyReport {
	total := len(snap.Sections)
	if total == 0 {
		return &TopologyReport{
			DegreeHistogram: defaultHistogram(),
			TypeCounts:      map[string]int{},
		}
	}

	r := &TopologyReport{
		TotalSections: total,
		TotalEdges:    len(snap.Edges),
		TypeCounts:    make(map[string]int),
	}

	uf := NewUnionFind(total)
	for _, e := range snap.Edges {
		uf.Union(e[0], e[1])
	}
	components := uf.Components()
	r.NumComponents = len(components)
	r.SmallestComponent = total
	for _, c := range components {
		r.LargestComponent = max(r.LargestComponent, len(c))
		r.SmallestComponent = min(r.SmallestComponent, len(c))
	}

	buckets := [7]int{}
	var unifurcations []int
	for i, s := range snap.Sections {
		r.TotalLength += s.Length
		r.TypeCounts[s.Type]++
		out := len(snap.OutAdj[i])
		if len(snap.InAdj[i]) == 0 {
			r.Roots++
		}
		if len(snap.Adj[i]) == 0 {
			r.OrphanCount++
		}
		switch {
		case out == 0:
			r.Leaves++
		case out == 1:
			unifurcations = append(unifurcations, i)
		case out == 2:
			r.Bifurcations++
		default:
			r.Multifurcations++
		}
		buckets[degreeBucket(out)]++
	}
	r.Unifurcations = len(unifurcations)
	if len(unifurcations) > topN {
		unifurcations = unifurcations[:topN]
	}
	r.UnifurcationIDs = unifurcations

	r.DegreeHistogram = defaultHistogram()
	for i := range r.DegreeHistogram {
		r.DegreeHistogram[i].Count = buckets[i]
	}

	orders := branchOrders(snap)
	counts := make(map[int]int)
	for _, o := range orders {
		if o < 0 {
			continue
		}
		counts[o]++
		r.MaxBranchOrder = max(r.MaxBranchOrder, o)
	}
	keys := make([]int, 0, len(counts))
	for o := range counts {
		keys = append(keys, o)
	}
	sort.Ints(keys)
	for _, o := range keys {
		r.BranchOrders = append(r.BranchOrders, DegreeBucket{Label: strconv.Itoa(o), Count: counts[o]})
	}

	return r
}

// branchOrders returns each section's distance in edges from the nearest
// root, found breadth-first over directed edges. Sections unreachable from
// any root (inside a cycle with no entry) get -1.
func branchOrders(snap *Snapshot) []int {
	order := make([]int, len(snap.Sections))
	var queue []int
	for i := range order {
		order[i] = -1
		if len(snap.InAdj[i]) == 0 {
			order[i] = 0
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range snap.OutAdj[cur] {
			if order[next] < 0 {
				order[next] = order[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	return order
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
