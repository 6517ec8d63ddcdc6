package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rumor/internal/sqlite"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export guests from the local backend as JSONL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeBackend, err := openService(nil)
		if err != nil {
			return err
		}
		defer closeBackend()

		coll, _ := svc.Snapshot()
		if err := sqlite.ExportGuests(args[0], coll.Guests()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d guests to %s\n", coll.Len(), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import guests from a JSONL file into the local backend",
	Long: `Import adds the guests in a JSONL export to the local backend. Guests whose
id is already known are skipped, as are lines that do not hold a guest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		guests, malformed, err := sqlite.ImportGuests(args[0])
		if err != nil {
			return err
		}

		svc, closeBackend, err := openService(nil)
		if err != nil {
			return err
		}
		defer closeBackend()

		n, err := svc.Import(cmd.Context(), guests)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d guests (%d skipped, %d malformed lines)\n",
			n, len(guests)-n, malformed)
		return nil
	},
}
