// Package graph analyses the section graph of a morphology or vasculature
// snapshot: components, branching, articulation points and a quality score.
package graph

import (
	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/vasc"
)

// SectionInfo is a lightweight section representation decoupled from the
// snapshot types
type SectionInfo struct {
	Index  int
	Type   string
	Points int
	Length float64 // path length along the section's points
}

// Snapshot holds a section graph with precomputed adjacency lists.
// Edges are directed parent to child (or predecessor to successor).
type Snapshot struct {
	Sections []SectionInfo
	Edges    [][2]int
	Adj      [][]int // undirected
	OutAdj   [][]int // directed: source -> targets
	InAdj    [][]int // directed: target -> sources
	// Tree is set for neuronal snapshots, where every section has at most
	// one parent
	Tree bool
}

// NewSnapshot builds a Snapshot from sections and directed edges. Edges with
// an endpoint outside the section list are dropped.
func NewSnapshot(sections []SectionInfo, edges [][2]int, tree bool) *Snapshot {
	n := len(sections)
	adj := make([][]int, n)
	outAdj := make([][]int, n)
	inAdj := make([][]int, n)

	kept := edges[:0:0]
	for _, e := range edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			continue
		}
		kept = append(kept, e)
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
		outAdj[e[0]] = append(outAdj[e[0]], e[1])
		inAdj[e[1]] = append(inAdj[e[1]], e[0])
	}

	return &Snapshot{
		Sections: sections,
		Edges:    kept,
		Adj:      adj,
		OutAdj:   outAdj,
		InAdj:    inAdj,
		Tree:     tree,
	}
}

// FromMorphology builds the neurite section tree of a neuronal snapshot
func FromMorphology(p *morph.Properties) *Snapshot {
	sections := make([]SectionInfo, p.SectionCount())
	var edges [][2]int
	for i := range sections {
		pl := p.SectionPoints(i)
		sections[i] = SectionInfo{
			Index:  i,
			Type:   p.Types[i].String(),
			Points: pl.Len(),
			Length: pathLength(pl.Points),
		}
		if parent := p.Parent(i); parent >= 0 {
			edges = append(edges, [2]int{parent, i})
		}
	}
	return NewSnapshot(sections, edges, true)
}

// FromVasculature builds the section graph of a vascular snapshot
func FromVasculature(p *vasc.Properties) *Snapshot {
	sections := make([]SectionInfo, len(p.Offsets))
	for i := range sections {
		start, end := p.Range(i)
		pts := p.Points[start:end]
		sections[i] = SectionInfo{
			Index:  i,
			Type:   p.Types[i].String(),
			Points: len(pts),
			Length: pathLength(pts),
		}
	}
	edges := make([][2]int, 0, len(p.Connectivity))
	for _, c := range p.Connectivity {
		edges = append(edges, [2]int{int(c[0]), int(c[1])})
	}
	return NewSnapshot(sections, edges, false)
}

func pathLength(pts []morph.Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i].Distance(pts[i-1])
	}
	return total
}
