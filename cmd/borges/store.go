package main

import (
	"encoding/hex"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/borges/store"
)

func (c *cli) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage named snapshots in the local store",
	}
	cmd.PersistentFlags().String("db", "", "snapshot database (default: [store] path from config)")
	cmd.AddCommand(c.storePutCmd())
	cmd.AddCommand(c.storeGetCmd())
	cmd.AddCommand(c.storeListCmd())
	cmd.AddCommand(c.storeRmCmd())
	return cmd
}

// openStore opens the database named by --db or the configuration.
func (c *cli) openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = c.cfg.StorePath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("opened store", "path", st.Path())
	return st, nil
}

func (c *cli) storePutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <name> <file.json>",
		Short: "Store JSON values under a name, replacing any existing snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			values, err := parseValues(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			info, err := st.Put(cmd.Context(), args[0], values, c.streamOptions(cmd).shared)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d values)\n", info.ID, info.Name, info.Count)
			return nil
		},
	}
	cmd.Flags().Bool("shared", false, "intern arrays shared between values")
	return cmd
}

func (c *cli) storeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			values, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printValues(cmd.OutOrStdout(), values)
		},
	}
}

func (c *cli) storeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVALUES\tSHARED\tHASH\tCREATED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%t\t%s\t%s\n",
					info.Name, info.Count, info.Shared,
					hex.EncodeToString(info.Hash[:6]),
					info.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) storeRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"delete"},
		Short:   "Remove stored snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, name := range args {
				if err := st.Delete(cmd.Context(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
