package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dolkit/internal/analysis"
	"dolkit/internal/disasm"
	"dolkit/internal/dolx"
	"dolkit/internal/ui/colorize"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <binary.yml>",
	Short: "Print the normalized disassembly of executable sections",
	Long: `Disasm decodes every executable section of the described binary. Words
the decoder refuses, or decodes incorrectly for this CPU, are printed as
.4byte data.`,
	Example: `
# All text sections
dolkit disasm main.yml

# Section 1 only, with overwritten registers
dolkit disasm -s 1 -a main.yml
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetInt("section")
		annotate, _ := cmd.Flags().GetBool("annotate")

		desc, err := dolx.LoadDescriptor(args[0])
		if err != nil {
			return err
		}
		im, err := desc.Load()
		if err != nil {
			return err
		}

		if section >= 0 {
			s, ok := im.Section(section)
			if !ok {
				return fmt.Errorf("section %d does not exist, %s has %d", section, im.Path, len(im.Sections()))
			}
			if s.Data == nil {
				return fmt.Errorf("section %d %s has no data", section, s.Name)
			}
		}

		locate := func(addr uint32) (string, bool) {
			i, ok := im.FindSection(addr)
			if !ok {
				return "", false
			}
			s, _ := im.Section(i)
			return s.Name, true
		}

		dec := disasm.NewDecoder(disasm.WithLogger(logger.Logger))
		w := cmd.OutOrStdout()
		for i, s := range im.Sections() {
			if section >= 0 && i != section {
				continue
			}
			if section < 0 && (!s.Exec || s.Data == nil) {
				continue
			}

			stream, err := dec.Decode(s.Addr, s.Data)
			if err != nil {
				return fmt.Errorf("section %d %s: %w", i, s.Name, err)
			}

			fmt.Fprintf(w, "Section %d %s\n", i, s.Name)
			for _, line := range analysis.Annotate(stream, analysis.WithLocator(locate)) {
				if !annotate {
					line.Annotations = nil
				}
				fmt.Fprintln(w, colorize.Line(line.String()))
			}
		}
		return nil
	},
}

func init() {
	disasmCmd.Flags().IntP("section", "s", -1, "Only disassemble this section index")
	disasmCmd.Flags().BoolP("annotate", "a", false, "Annotate overwritten registers and resolved addresses")
	rootCmd.AddCommand(disasmCmd)
}
