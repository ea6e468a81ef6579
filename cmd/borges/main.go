// Borges CLI - encodes, decodes, inspects and stores value streams.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/borges/manifest"

	_ "github.com/tliron/commonlog/simple"
)

// version is overridden at link time.
var version = "0.1.0"

var log = commonlog.GetLogger("borges.cli")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds state shared by all commands of one invocation.
type cli struct {
	// configFile is set by the --config flag.
	configFile string
	// verbosity is the count of -v flags.
	verbosity int

	cfg *manifest.Manifest
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "borges",
		Short: "Borges encodes typed values as flat slot streams",
		Long: `Borges converts booleans, numbers, vectors, matrices and arrays of
them between JSON and flat float64 slot streams, either as raw
little-endian slots or wrapped in hashed CBOR chunks. Streams can be
kept in a local snapshot store or served over Connect.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.init,
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: borges.toml in the current or a parent directory)")
	root.PersistentFlags().CountVarP(&c.verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	root.AddCommand(c.encodeCmd())
	root.AddCommand(c.decodeCmd())
	root.AddCommand(c.inspectCmd())
	root.AddCommand(c.storeCmd())
	root.AddCommand(c.serveCmd())
	root.AddCommand(versionCmd())
	return root
}

// init loads the configuration and sets up logging.
func (c *cli) init(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	verbosity := cfg.Log.Verbosity
	if c.verbosity > 0 {
		verbosity = c.verbosity
	}
	if path := cfg.LogPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		commonlog.Configure(verbosity, &path)
	} else {
		commonlog.Configure(verbosity, nil)
	}

	log.Debug("configuration loaded", "dir", cfg.Dir, "format", cfg.Codec.Format, "shared", cfg.Codec.Shared)
	return nil
}

func (c *cli) loadConfig() (*manifest.Manifest, error) {
	if c.configFile != "" {
		return manifest.LoadFile(c.configFile)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = manifest.Default(wd)
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "borges v%s\n", version)
		},
	}
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
