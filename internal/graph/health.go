package graph

import "math"

// QualityBreakdown shows the sub-scores of the quality formula
type QualityBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Branching    float64 `json:"branching"`
	Fragility    float64 `json:"fragility"`
}

// AnalysisReport is the full analysis result. Bridges is only computed for
// general graphs; in a tree every edge is a bridge.
type AnalysisReport struct {
	QualityScore     float64          `json:"quality_score"`
	QualityBreakdown QualityBreakdown `json:"quality_breakdown"`
	Topology         *TopologyReport  `json:"topology"`
	Bridges          *BridgeReport    `json:"bridges,omitempty"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	TopN int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{TopN: 50}
}

// Analyze runs all analyses and computes a composite quality score in [0, 1]
func Analyze(snap *Snapshot, config *AnalyzerConfig) *AnalysisReport {
	if config == nil {
		config = DefaultConfig()
	}
	topology := ComputeTopology(snap, config.TopN)
	var bridges *BridgeReport
	if !snap.Tree {
		bridges = ComputeBridges(snap)
	}

	total := float64(topology.TotalSections)

	var connectivity, components, branching float64
	fragility := 1.0

	if total > 0 {
		connectivity = 1
		if !snap.Tree {
			// a lone vessel is an error; a lone neurite section is not
			connectivity = clamp(1.0-math.Min(float64(topology.OrphanCount)/total, 0.2)*5.0, 0, 1)
		}
		branching = clamp(1.0-math.Min(float64(topology.Unifurcations)/total, 0.2)*5.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		expected := 1
		if snap.Tree {
			// each neurite is its own tree
			expected = max(topology.Roots, 1)
		}
		components = clamp(float64(expected)/float64(topology.NumComponents), 0, 1)
	}
	if bridges != nil && total > 0 {
		fragility = clamp(1.0-math.Min(float64(bridges.APCount)/total, 0.05)*20.0, 0, 1)
	}

	score := 0.30*connectivity + 0.25*components + 0.25*branching + 0.20*fragility
	if total == 0 {
		score = 0
	}

	return &AnalysisReport{
		QualityScore: score,
		QualityBreakdown: QualityBreakdown{
			Connectivity: connectivity,
			Components:   components,
			Branching:    branching,
			Fragility:    fragility,
		},
		Topology: topology,
		Bridges:  bridges,
	}
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
