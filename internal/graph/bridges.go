package graph

import "sort"

// ArticulationPoint is a section whose removal disconnects the graph
type ArticulationPoint struct {
	Section             int    `json:"section"`
	Type                string `json:"type"`
	ComponentsIfRemoved int    `json:"components_if_removed"`
}

// BridgeEdge is a connection whose removal disconnects the graph
type BridgeEdge struct {
	Source     int    `json:"source"`
	Target     int    `json:"target"`
	SourceType string `json:"source_type"`
	TargetType string `json:"target_type"`
}

// TypeTransition counts connections between sections of two different types
type TypeTransition struct {
	TypeA string `json:"type_a"`
	TypeB string `json:"type_b"`
	Edges int    `json:"edges"`
}

// BridgeReport contains bridge analysis results
type BridgeReport struct {
	ArticulationPoints []ArticulationPoint `json:"articulation_points"`
	BridgeEdges        []BridgeEdge        `json:"bridge_edges"`
	TypeTransitions    []TypeTransition    `json:"type_transitions"`
	APCount            int                 `json:"ap_count"`
	BridgeCount        int                 `json:"bridge_count"`
}

// ComputeBridges finds articulation points, bridge edges and the connections
// between differently typed sections, treating edges as undirected
func ComputeBridges(snap *Snapshot) *BridgeReport {
	n := len(snap.Sections)
	if n == 0 {
		return &BridgeReport{}
	}

	// Deduplicated undirected adjacency; parallel vessels count once
	adj := make([][]int, n)
	type edgePair struct{ u, v int }
	seen := make(map[edgePair]bool)
	for _, e := range snap.Edges {
		u, v := e[0], e[1]
		if u == v {
			continue
		}
		key := edgePair{min(u, v), max(u, v)}
		if !seen[key] {
			seen[key] = true
			adj[u] = append(adj[u], v)
			adj[v] = append(adj[v], u)
		}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isAP := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1

	// Iterative Tarjan for each connected component
	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node

			if top.ni < len(adj[node]) {
				child := adj[node][top.ni]
				top.ni++

				if child == top.parent {
					continue
				}

				if visited[child] {
					// Back edge
					low[node] = min(low[node], disc[child])
				} else {
					visited[child] = true
					disc[child] = counter
					low[child] = counter
					counter++

					if node == start {
						rootChildren++
					}
					stack = append(stack, frame{child, node, 0})
				}
				continue
			}

			// Done with this node, pop and propagate
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			pn := stack[len(stack)-1].node
			low[pn] = min(low[pn], low[node])

			if low[node] > disc[pn] {
				bridgePairs = append(bridgePairs, [2]int{pn, node})
			}
			if pn != start && low[node] >= disc[pn] {
				isAP[pn] = true
			}
		}

		if rootChildren >= 2 {
			isAP[start] = true
		}
	}

	var aps []ArticulationPoint
	for i := 0; i < n; i++ {
		if isAP[i] {
			aps = append(aps, ArticulationPoint{
				Section:             i,
				Type:                snap.Sections[i].Type,
				ComponentsIfRemoved: len(adj[i]),
			})
		}
	}

	var bridges []BridgeEdge
	for _, pair := range bridgePairs {
		bridges = append(bridges, BridgeEdge{
			Source:     pair[0],
			Target:     pair[1],
			SourceType: snap.Sections[pair[0]].Type,
			TargetType: snap.Sections[pair[1]].Type,
		})
	}
	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i].Source != bridges[j].Source {
			return bridges[i].Source < bridges[j].Source
		}
		return bridges[i].Target < bridges[j].Target
	})

	type typePair struct{ a, b string }
	pairCounts := make(map[typePair]int)
	for _, e := range snap.Edges {
		ta := snap.Sections[e[0]].Type
		tb := snap.Sections[e[1]].Type
		if ta == tb {
			continue
		}
		key := typePair{ta, tb}
		if ta > tb {
			key = typePair{tb, ta}
		}
		pairCounts[key]++
	}

	var transitions []TypeTransition
	for pair, count := range pairCounts {
		transitions = append(transitions, TypeTransition{TypeA: pair.a, TypeB: pair.b, Edges: count})
	}
	sort.Slice(transitions, func(i, j int) bool {
		if transitions[i].TypeA != transitions[j].TypeA {
			return transitions[i].TypeA < transitions[j].TypeA
		}
		return transitions[i].TypeB < transitions[j].TypeB
	})

	return &BridgeReport{
		ArticulationPoints: aps,
		BridgeEdges:        bridges,
		TypeTransitions:    transitions,
		APCount:            len(aps),
		BridgeCount:        len(bridges),
	}
}
