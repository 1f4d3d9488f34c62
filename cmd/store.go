package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"morphkit/arbor/internal/codec"
	"morphkit/arbor/internal/morph"
)

var (
	storeJSON      bool
	storeName      string
	storeModifiers []string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the morphology catalog",
}

var storeImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Read files and save them in the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := storeModifiers
		if !cmd.Flags().Changed("modifiers") {
			names = cfg.Modifiers
		}
		mods, err := morph.ParseModifiers(names)
		if err != nil {
			return fmt.Errorf("--modifiers: %w", err)
		}

		d, err := OpenStore()
		if err != nil {
			return err
		}
		defer d.Close()

		for _, path := range args {
			h, err := newHandler()
			if err != nil {
				return err
			}
			p, err := codec.LoadProperties(path, mods, h)
			if err != nil {
				return err
			}
			source, err := filepath.Abs(path)
			if err != nil {
				source = path
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			id, err := d.Save(name, source, p)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", id, name)
		}
		return nil
	},
}

var storeExportCmd = &cobra.Command{
	Use:   "export <id|name> <file>",
	Short: "Write a stored morphology to a file; the extension picks the format",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenStore()
		if err != nil {
			return err
		}
		defer d.Close()

		e, err := ResolveEntry(d, args[0])
		if err != nil {
			return err
		}
		p, err := d.Load(e.ID)
		if err != nil {
			return err
		}
		h, err := newHandler()
		if err != nil {
			return err
		}
		if err := codec.WriteProperties(p, args[1], h); err != nil {
			return err
		}
		log.WithField("id", e.ID).Infof("exported %s to %s", e.Name, args[1])
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored morphologies, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenStore()
		if err != nil {
			return err
		}
		defer d.Close()

		entries, err := d.List()
		if storeName != "" {
			entries, err = d.SearchByName(storeName)
		}
		if err != nil {
			return err
		}

		if storeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		for _, e := range entries {
			created := time.UnixMilli(e.CreatedAt)
			fmt.Printf("%s  %-24s %6s sections %8s points  %-5s %s\n",
				truncID(e.ID), e.Name,
				humanize.Comma(int64(e.SectionCount)), humanize.Comma(int64(e.PointCount)),
				e.Format, humanize.Time(created))
		}
		return nil
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>...",
	Short: "Remove morphologies from the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenStore()
		if err != nil {
			return err
		}
		defer d.Close()

		for _, ref := range args {
			e, err := ResolveEntry(d, ref)
			if err != nil {
				return err
			}
			if err := d.Delete(e.ID); err != nil {
				return err
			}
			fmt.Printf("deleted %s  %s\n", truncID(e.ID), e.Name)
		}
		return nil
	},
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count what the catalog holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenStore()
		if err != nil {
			return err
		}
		defer d.Close()

		s, err := d.Stats()
		if err != nil {
			return err
		}
		if storeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		size := ""
		if st, err := os.Stat(d.Path); err == nil {
			size = " (" + humanize.Bytes(uint64(st.Size())) + ")"
		}
		fmt.Printf("%s%s\n", d.Path, size)
		fmt.Printf("  morphologies: %s\n", humanize.Comma(int64(s.Morphologies)))
		fmt.Printf("  sections:     %s\n", humanize.Comma(int64(s.Sections)))
		fmt.Printf("  points:       %s\n", humanize.Comma(int64(s.Points)))
		fmt.Printf("  markers:      %s\n", humanize.Comma(int64(s.Markers)))
		return nil
	},
}

func init() {
	storeImportCmd.Flags().StringSliceVar(&storeModifiers, "modifiers", nil, "Modifiers to apply before saving")
	storeListCmd.Flags().StringVar(&storeName, "name", "", "Only list entries whose name contains this text")
	storeListCmd.Flags().BoolVar(&storeJSON, "json", false, "Output as JSON")
	storeStatsCmd.Flags().BoolVar(&storeJSON, "json", false, "Output as JSON")

	storeCmd.AddCommand(storeImportCmd, storeExportCmd, storeListCmd, storeDeleteCmd, storeStatsCmd)
	rootCmd.AddCommand(storeCmd)
}
