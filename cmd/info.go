package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"morphkit/arbor/internal/codec"
	"morphkit/arbor/internal/graph"
	"morphkit/arbor/internal/morph"
)

var (
	infoJSON      bool
	infoTopN      int
	infoModifiers []string
	infoFromStore bool
)

// infoReport is what `arbor info` prints
type infoReport struct {
	Source       string                `json:"source"`
	Format       string                `json:"format"`
	Version      string                `json:"version"`
	Family       string                `json:"family"`
	SomaType     string                `json:"soma_type"`
	SomaPoints   int                   `json:"soma_points"`
	Sections     int                   `json:"sections"`
	Points       int                   `json:"points"`
	Mitochondria int                   `json:"mitochondria"`
	Markers      int                   `json:"markers"`
	SizeBytes    int64                 `json:"size_bytes,omitempty"`
	Analysis     *graph.AnalysisReport `json:"analysis"`
}

var infoCmd = &cobra.Command{
	Use:   "info <file|id>",
	Short: "Summarise a morphology: soma, sections, topology, quality score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := morph.ParseModifiers(infoModifiers)
		if err != nil {
			return fmt.Errorf("--modifiers: %w", err)
		}

		report, err := buildInfo(args[0], mods)
		if err != nil {
			return err
		}

		if infoJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printInfo(report)
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output as JSON")
	infoCmd.Flags().IntVar(&infoTopN, "top-n", 10, "Number of unifurcations to list")
	infoCmd.Flags().StringSliceVar(&infoModifiers, "modifiers", nil, "Modifiers to apply before summarising")
	infoCmd.Flags().BoolVar(&infoFromStore, "stored", false, "Treat the argument as a catalog id or name")
	rootCmd.AddCommand(infoCmd)
}

func buildInfo(ref string, mods morph.Modifier) (*infoReport, error) {
	var (
		p      *morph.Properties
		source = ref
		size   int64
	)
	if infoFromStore {
		d, err := OpenStore()
		if err != nil {
			return nil, err
		}
		defer d.Close()
		e, err := ResolveEntry(d, ref)
		if err != nil {
			return nil, err
		}
		if p, err = d.Load(e.ID); err != nil {
			return nil, err
		}
		source = e.Name + " (" + truncID(e.ID) + ")"
		if mods != morph.NoModifier {
			h, err := newHandler()
			if err != nil {
				return nil, err
			}
			m, err := morph.FromProperties(p, mods, morph.WithHandler(h))
			if err != nil {
				return nil, err
			}
			if p, err = m.BuildReadOnly(); err != nil {
				return nil, err
			}
		}
	} else {
		h, err := newHandler()
		if err != nil {
			return nil, err
		}
		if p, err = codec.LoadProperties(ref, mods, h); err != nil {
			return nil, err
		}
		if st, err := os.Stat(ref); err == nil {
			size = st.Size()
		}
	}

	version := ""
	if p.Version.Format != "" {
		version = fmt.Sprintf("%s %d.%d", p.Version.Format, p.Version.Major, p.Version.Minor)
	}
	return &infoReport{
		Source:       source,
		Format:       p.Version.Format,
		Version:      version,
		Family:       p.Family.String(),
		SomaType:     p.SomaType.String(),
		SomaPoints:   p.Soma.Len(),
		Sections:     p.SectionCount(),
		Points:       p.Len(),
		Mitochondria: len(p.Mito.Sections),
		Markers:      len(p.Markers),
		SizeBytes:    size,
		Analysis:     graph.Analyze(graph.FromMorphology(p), &graph.AnalyzerConfig{TopN: infoTopN}),
	}, nil
}

func printInfo(r *infoReport) {
	fmt.Printf("\n  %s", r.Source)
	if r.SizeBytes > 0 {
		fmt.Printf("  (%s)", humanize.Bytes(uint64(r.SizeBytes)))
	}
	fmt.Println()
	if r.Version != "" {
		fmt.Printf("  %s, %s\n", r.Version, r.Family)
	}
	fmt.Printf("  soma: %s, %d points\n", r.SomaType, r.SomaPoints)
	fmt.Printf("  %s sections, %s points", humanize.Comma(int64(r.Sections)), humanize.Comma(int64(r.Points)))
	if r.Mitochondria > 0 {
		fmt.Printf(", %d mitochondrial sections", r.Mitochondria)
	}
	if r.Markers > 0 {
		fmt.Printf(", %d markers", r.Markers)
	}
	fmt.Println()

	report := r.Analysis
	// Quality bar
	barLen := min(int(report.QualityScore*20), 20)
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Printf("\n  Quality: %.0f%%  [%s]\n", report.QualityScore*100, bar)
	fmt.Printf("  breakdown: connectivity=%.2f components=%.2f branching=%.2f fragility=%.2f\n\n",
		report.QualityBreakdown.Connectivity,
		report.QualityBreakdown.Components,
		report.QualityBreakdown.Branching,
		report.QualityBreakdown.Fragility)

	// Topology
	t := report.Topology
	fmt.Println("  TOPOLOGY")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Sections: %d  Roots: %d  Leaves: %d\n", t.TotalSections, t.Roots, t.Leaves)
	fmt.Printf("  Bifurcations: %d  Multifurcations: %d  Total length: %.2f\n",
		t.Bifurcations, t.Multifurcations, t.TotalLength)

	if len(t.TypeCounts) > 0 {
		types := make([]string, 0, len(t.TypeCounts))
		for typ := range t.TypeCounts {
			types = append(types, typ)
		}
		sort.Strings(types)
		parts := make([]string, len(types))
		for i, typ := range types {
			parts[i] = fmt.Sprintf("%s=%d", typ, t.TypeCounts[typ])
		}
		fmt.Printf("  Types: %s\n", strings.Join(parts, " "))
	}

	if t.Unifurcations > 0 {
		fmt.Printf("  Unifurcations: %d sections with a single child\n", t.Unifurcations)
		for _, id := range t.UnifurcationIDs {
			fmt.Printf("    - section %d\n", id)
		}
		if t.Unifurcations > len(t.UnifurcationIDs) {
			fmt.Printf("    ... and %d more\n", t.Unifurcations-len(t.UnifurcationIDs))
		}
	}

	// Branch order distribution
	if len(t.BranchOrders) > 0 {
		fmt.Println("\n  Branch order distribution:")
		for _, b := range t.BranchOrders {
			barWidth := max(int(math.Log2(float64(b.Count)))+2, 1)
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	fmt.Println()
}
