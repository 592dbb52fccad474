package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"dolkit/internal/disasm"
	"dolkit/internal/dolkit/log"
	"dolkit/internal/logging"
)

// logger is configured in PersistentPreRunE before any subcommand runs.
var logger *logging.LoggerCloser

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
}

var rootCmd = &cobra.Command{
	Use:   "dolkit",
	Short: "Structural diff and disassembly for DOL and REL binaries",
	Long: `Dolkit compares a rebuilt GameCube/Wii binary against a reference build.
It diffs sections and relocations, and prints normalized disassembly with the
registers every instruction overwrites.`,
	Example: `
# Diff a rebuilt REL against the reference described by a yml
dolkit diff d_a_obj.yml build/d_a_obj.rel

# Disassemble the first text section with register annotations
dolkit disasm -s 1 -a d_a_obj.yml
  `,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}

		dbg, _ := cmd.Flags().GetBool("debug")
		logger = log.Setup(dbg)

		if !term.IsTerminal(os.Stdout.Fd()) {
			os.Setenv("DOLKIT_NO_COLOR", "1")
		}

		info, _ := debug.ReadBuildInfo()
		return disasm.CheckDecoderVersion(info)
	},
}

func Execute() {
	defer closeLogger()

	// fang renders help and errors for terminals; piped output stays plain
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func closeLogger() {
	if logger != nil {
		_ = logger.Close()
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
