package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"dolkit/internal/diff"
	"dolkit/internal/dolx"
)

var diffCmd = &cobra.Command{
	Use:   "diff <good.yml> <test>",
	Short: "Diff the sections and relocations of a binary against a reference",
	Long: `Diff compares the sections of a test binary against the reference binary
described by a yml file. When every section matches and both binaries are
RELs, the relocation tables are compared as well.

Only differing entries are printed. The exit status does not depend on
whether differences were found.`,
	Example: `
dolkit diff main.yml build/main.dol
  `,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := dolx.LoadDescriptor(args[0])
		if err != nil {
			return err
		}
		good, err := desc.Load()
		if err != nil {
			return fmt.Errorf("load reference: %w", err)
		}
		test, err := desc.LoadOther(args[1])
		if err != nil {
			return fmt.Errorf("load test binary: %w", err)
		}
		slog.Debug("Diffing binaries", "good", good.Path, "test", test.Path, "kind", good.Kind)

		d := diff.New(cmd.OutOrStdout(), diff.WithLogger(logger.Logger))
		if !d.Sections(good, test) && good.IsRelocatable() && test.IsRelocatable() {
			d.Relocations(good, test)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
