package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"morphkit/arbor/internal/codec"
	"morphkit/arbor/internal/morph"
)

var (
	convertTo        string
	convertOut       string
	convertModifiers []string
	convertWorkers   int
	convertKeepGoing bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>... --to swc|asc",
	Short: "Convert morphology files between formats",
	Long: `Reads each input, applies the requested modifiers and writes it in the
target format. Inputs are converted in parallel; the output name is the input
base name with the new extension.

Without --out the converted file is written next to its input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ext := "." + strings.TrimPrefix(strings.ToLower(convertTo), ".")
		if _, err := codec.FormatOf("out" + ext); err != nil {
			return fmt.Errorf("--to: %w", err)
		}

		names := convertModifiers
		if !cmd.Flags().Changed("modifiers") {
			names = cfg.Modifiers
		}
		mods, err := morph.ParseModifiers(names)
		if err != nil {
			return fmt.Errorf("--modifiers: %w", err)
		}

		if convertOut != "" {
			if err := os.MkdirAll(convertOut, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}

		workers := convertWorkers
		if workers <= 0 {
			workers = cfg.Workers
		}

		results, err := convertAll(cmd.Context(), args, ext, mods, workers)
		var written int64
		for _, r := range results {
			written += r.bytes
		}
		log.WithFields(logrus.Fields{
			"files": len(results),
			"size":  humanize.Bytes(uint64(written)),
		}).Info("conversion finished")
		return err
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "swc", "Target format: swc or asc")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "Output directory")
	convertCmd.Flags().StringSliceVar(&convertModifiers, "modifiers", nil,
		"Modifiers to apply: two_points_sections, soma_sphere, no_duplicates, nrn_order")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "Parallel conversions (default from config)")
	convertCmd.Flags().BoolVar(&convertKeepGoing, "keep-going", false, "Convert remaining files after a failure")
	rootCmd.AddCommand(convertCmd)
}

type convertResult struct {
	in, out string
	bytes   int64
}

// convertAll converts inputs with at most workers in flight. The first
// failure cancels the rest unless --keep-going is set.
func convertAll(ctx context.Context, inputs []string, ext string, mods morph.Modifier, workers int) ([]convertResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]convertResult, len(inputs))
	var failed atomic.Int32
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := convertOne(in, ext, mods)
			if err != nil {
				if convertKeepGoing {
					failed.Add(1)
					log.WithField("file", in).Error(err)
					return nil
				}
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return compact(results), err
	}
	if n := failed.Load(); n > 0 {
		return compact(results), fmt.Errorf("%d of %d conversions failed", n, len(inputs))
	}
	return compact(results), nil
}

func convertOne(in, ext string, mods morph.Modifier) (convertResult, error) {
	h, err := newHandler()
	if err != nil {
		return convertResult{}, err
	}
	m, err := codec.Load(in, mods, h)
	if err != nil {
		return convertResult{}, err
	}

	dir := filepath.Dir(in)
	if convertOut != "" {
		dir = convertOut
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(dir, base+ext)
	if err := codec.Write(m, out); err != nil {
		return convertResult{}, err
	}

	r := convertResult{in: in, out: out}
	if st, err := os.Stat(out); err == nil {
		r.bytes = st.Size()
	}
	log.WithFields(logrus.Fields{
		"in":       in,
		"out":      out,
		"sections": m.Len(),
	}).Debug("converted")
	return r, nil
}

func compact(results []convertResult) []convertResult {
	out := results[:0]
	for _, r := range results {
		if r.in != "" {
			out = append(out, r)
		}
	}
	return out
}
