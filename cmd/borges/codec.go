package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/borges/manifest"
	"github.com/chazu/borges/vm"
	"github.com/chazu/borges/vm/dist"
)

// streamOptions selects the on-disk stream layout.
type streamOptions struct {
	raw    bool
	shared bool
}

func addStreamFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("raw", false, "read or write raw little-endian slots instead of a chunk")
	cmd.Flags().Bool("shared", false, "intern arrays shared between values")
}

// streamOptions resolves the stream flags against the configuration.
// Flags given on the command line win.
func (c *cli) streamOptions(cmd *cobra.Command) streamOptions {
	opts := streamOptions{
		raw:    c.cfg.Codec.Format == manifest.FormatRaw,
		shared: c.cfg.Codec.Shared,
	}
	if f := cmd.Flags().Lookup("raw"); f != nil && f.Changed {
		opts.raw, _ = cmd.Flags().GetBool("raw")
	}
	if f := cmd.Flags().Lookup("shared"); f != nil && f.Changed {
		opts.shared, _ = cmd.Flags().GetBool("shared")
	}
	return opts
}

func (c *cli) encodeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <file.json>",
		Short: "Encode JSON values into a stream",
		Long: `Encode reads a JSON value, or a JSON array of values, and writes
the encoded stream. Each value is an object {"type": ..., "value": ...}.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			values, err := parseValues(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			defer out.Close()

			opts := c.streamOptions(cmd)
			if err := writeStream(out, values, opts); err != nil {
				return err
			}
			log.Info("encoded values", "count", len(values), "raw", opts.raw, "shared", opts.shared)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	addStreamFlags(cmd)
	return cmd
}

func (c *cli) decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a stream and print its values as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			values, err := readStream(data, c.streamOptions(cmd))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printValues(cmd.OutOrStdout(), values)
		},
	}
	addStreamFlags(cmd)
	return cmd
}

func (c *cli) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the slots of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			var slots []float64
			if c.streamOptions(cmd).raw {
				if slots, err = vm.UnmarshalSlots(data); err != nil {
					return err
				}
			} else {
				chunk, err := dist.UnmarshalChunk(data)
				if err != nil {
					return err
				}
				printChunkHeader(w, chunk)
				if slots, err = chunk.Decode(); err != nil {
					return err
				}
			}
			return printSlots(w, slots)
		},
	}
	addStreamFlags(cmd)
	return cmd
}

// parseValues accepts a single JSON value or an array of them.
func parseValues(data []byte) ([]vm.Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var values []vm.Value
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, err
		}
		return values, nil
	}
	var v vm.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return []vm.Value{v}, nil
}

func writeStream(w io.Writer, values []vm.Value, opts streamOptions) error {
	if opts.raw {
		var slots []float64
		if opts.shared {
			slots = vm.EncodeShared(values...)
		} else {
			slots = vm.EncodeValues(values...)
		}
		return vm.WriteSlots(w, slots)
	}
	data, err := dist.MarshalChunk(dist.NewChunk(values, opts.shared))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readStream(data []byte, opts streamOptions) ([]vm.Value, error) {
	if !opts.raw {
		chunk, err := dist.UnmarshalChunk(data)
		if err != nil {
			return nil, err
		}
		return chunk.Values()
	}
	slots, err := vm.UnmarshalSlots(data)
	if err != nil {
		return nil, err
	}
	if opts.shared {
		return vm.DecodeShared(slots)
	}
	return vm.DecodeValues(slots)
}

func printValues(w io.Writer, values []vm.Value) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(values)
}

func printChunkHeader(w io.Writer, chunk *dist.Chunk) {
	fmt.Fprintf(w, "version: %d\n", chunk.Version)
	fmt.Fprintf(w, "format:  %s\n", chunk.Format)
	fmt.Fprintf(w, "hash:    %s\n", hex.EncodeToString(chunk.Hash[:]))
	fmt.Fprintf(w, "roots:   %v\n", chunk.RootTypes())
	fmt.Fprintf(w, "slots:   %d\n", chunk.SlotCount())
	if err := chunk.Verify(); err != nil {
		fmt.Fprintf(w, "verify:  %v\n", err)
	}
}

func printSlots(w io.Writer, slots []float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for i, x := range slots {
		fmt.Fprintf(tw, "%d\t%v\t\n", i, x)
	}
	return tw.Flush()
}
