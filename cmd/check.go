package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"morphkit/arbor/internal/codec"
	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

var checkJSON bool

type checkWarning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// checkResult is the outcome of checking one file
type checkResult struct {
	File          string         `json:"file"`
	OK            bool           `json:"ok"`
	Error         string         `json:"error,omitempty"`
	Warnings      []checkWarning `json:"warnings"`
	Unifurcations []uint32       `json:"unifurcations"`
}

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Load files and report warnings, errors and unifurcated sections",
	Long: `Loads each file with every warning collected instead of printed, then
lists sections with exactly one child. Exits non-zero when a file fails to load.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results := make([]checkResult, 0, len(args))
		failed := 0
		for _, path := range args {
			r, err := checkFile(path)
			if err != nil {
				return err
			}
			if !r.OK {
				failed++
			}
			results = append(results, r)
		}

		if checkJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		} else {
			printChecks(results)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to load", failed, len(args))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(checkCmd)
}

// checkFile loads path with a Collector. Load failures are reported in the
// result; only a bad config returns an error.
func checkFile(path string) (checkResult, error) {
	c := warning.NewCollector()
	if err := cfg.Apply(c); err != nil {
		return checkResult{}, err
	}
	c.SetRaiseWarnings(false)

	r := checkResult{File: path, Warnings: []checkWarning{}, Unifurcations: []uint32{}}
	m, err := codec.Load(path, morph.NoModifier, c)
	for _, rec := range c.All() {
		if rec.Ignored {
			continue
		}
		r.Warnings = append(r.Warnings, checkWarning{Kind: rec.Kind.String(), Message: rec.Message})
	}
	if err != nil {
		r.Error = err.Error()
		return r, nil
	}
	r.OK = true
	if u := m.Unifurcations(); len(u) > 0 {
		r.Unifurcations = u
	}
	return r, nil
}

func printChecks(results []checkResult) {
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAILED"
		}
		fmt.Printf("%s: %s\n", r.File, status)
		if r.Error != "" {
			fmt.Printf("  error: %s\n", r.Error)
		}
		for _, w := range r.Warnings {
			fmt.Printf("  warning [%s]: %s\n", w.Kind, w.Message)
		}
		if len(r.Unifurcations) > 0 {
			fmt.Printf("  %d sections with a single child: %v\n", len(r.Unifurcations), r.Unifurcations)
		}
	}
}
