package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"morphkit/arbor/internal/config"
	"morphkit/arbor/internal/store"
	"morphkit/arbor/internal/warning"
)

var (
	configPath string
	storePath  string
	logLevel   string
)

var (
	cfg = config.Default()
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:           "arbor",
	Short:         "Read, edit, convert and catalog neuronal morphologies",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an arbor YAML config")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to the morphology catalog (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// setup loads the config and configures the logger
func setup() error {
	path, err := DiscoverConfig()
	if err != nil {
		return err
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !isTerminal(os.Stderr),
		DisableTimestamp: true,
	})
	if path != "" {
		log.WithField("config", path).Debug("loaded config")
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DiscoverConfig finds the config path using priority: env > flag > walk-up > XDG fallback.
// An empty path with no error means no config exists and defaults apply.
func DiscoverConfig() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("ARBOR_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		return "", fmt.Errorf("config not found at --config path: %s", configPath)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 4. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "arbor", "config.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
}

// OpenStore opens the catalog named by --store or the config
func OpenStore() (*store.DB, error) {
	path := cfg.Store
	if storePath != "" {
		path = storePath
	}
	d, err := store.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	return d, nil
}

// newHandler returns a warning printer configured from the loaded config.
// Each reader gets its own so ignore-list toggles do not leak between goroutines.
func newHandler() (warning.Handler, error) {
	return cfg.WarningHandler(log)
}

// ResolveEntry finds a catalog entry by full ID, ID prefix, or name search
func ResolveEntry(d *store.DB, reference string) (*store.Entry, error) {
	// 1. Exact ID match
	if e, err := d.Get(reference); err == nil {
		return e, nil
	}

	// 2. ID prefix match (≥6 hex/dash chars)
	if len(reference) >= 6 && isHexDash(reference) {
		matches, err := d.SearchByIDPrefix(reference, 10)
		if err == nil {
			switch len(matches) {
			case 1:
				return &matches[0], nil
			case 0:
				// fall through to name search
			default:
				return nil, ambiguous(reference, matches, "Use a full ID instead.")
			}
		}
	}

	// 3. Name search
	named, err := d.SearchByName(reference)
	if err == nil {
		for i := range named {
			if named[i].Name == reference {
				return &named[i], nil
			}
		}
		switch len(named) {
		case 1:
			return &named[0], nil
		case 0:
		default:
			return nil, ambiguous(reference, named, "Use an ID instead.")
		}
	}

	return nil, fmt.Errorf("%w: %s", store.ErrNotFound, reference)
}

func ambiguous(reference string, matches []store.Entry, hint string) error {
	limit := min(len(matches), 10)
	lines := make([]string, limit)
	for i := 0; i < limit; i++ {
		lines[i] = fmt.Sprintf("  %s %s", truncID(matches[i].ID), matches[i].Name)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\n%s",
		reference, len(matches), strings.Join(lines, "\n"), hint)
}

func isHexDash(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '-') {
			return false
		}
	}
	return true
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
