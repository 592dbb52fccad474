package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"dolkit/internal/dolkit/styles"
	"dolkit/internal/dolx"
)

var infoCmd = &cobra.Command{
	Use:   "info <binary.yml>",
	Short: "Summarize the sections and relocations of a binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := dolx.LoadDescriptor(args[0])
		if err != nil {
			return err
		}
		im, err := desc.Load()
		if err != nil {
			return err
		}

		md := infoMarkdown(im)
		if os.Getenv("DOLKIT_NO_COLOR") != "" {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		width := 100
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
			width = w
		}
		r, err := styles.NewReportRenderer(width)
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// infoMarkdown describes im as a markdown document.
func infoMarkdown(im *dolx.Image) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", im.Path)
	fmt.Fprintf(&b, "- **Format:** %s\n", strings.ToUpper(im.Kind.String()))
	fmt.Fprintf(&b, "- **Size:** `%#x`\n", im.Size)
	switch im.Kind {
	case dolx.KindDOL:
		fmt.Fprintf(&b, "- **Entry:** `%#08x`\n", im.Entry)
	case dolx.KindREL:
		fmt.Fprintf(&b, "- **Module ID:** %d\n", im.ModuleID)
		fmt.Fprintf(&b, "- **Version:** %d\n", im.Version)
		fmt.Fprintf(&b, "- **Relocations:** %d\n", len(im.Relocs()))
	}

	b.WriteString("\n## Sections\n\n")
	b.WriteString("| # | Name | Offset | Address | Size | Exec | SHA-256 |\n")
	b.WriteString("|---|------|--------|---------|------|------|---------|\n")
	for i, s := range im.Sections() {
		exec := ""
		if s.Exec {
			exec = "x"
		}
		digest := im.SectionHash(i).String()
		fmt.Fprintf(&b, "| %d | %s | `%#x` | `%#08x` | `%#x` | %s | `%s` |\n",
			i, s.Name, s.Offset, s.Addr, s.Size, exec, digest[:16])
	}
	return b.String()
}
