// Command mempatch scans module images for byte signatures and checks or
// applies a YAML patch table against them.
//
// For CLI usage instructions:
//
//	mempatch --help
package main

import (
	"fmt"
	"os"
	"strconv"

	"mempatch/patch"
	"mempatch/process"
	"mempatch/process_blob"
	"mempatch/protect"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const defaultBase = "0x400000"

type options struct {
	config  string
	base    string
	output  string
	restore bool
	context int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "mempatch",
		Short:         "Signature based byte patching for module images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.base, "base", defaultBase, "address the image is treated as loaded at")

	scanCmd := &cobra.Command{
		Use:   "scan [image] [signature]",
		Short: "Lists every match of a signature in an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0], args[1])
		},
	}
	scanCmd.Flags().IntVar(&opts.context, "context", 16, "bytes of context shown around each match")

	checkCmd := &cobra.Command{
		Use:   "check [image]",
		Short: "Validates every patch in a table against an image without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}
	checkCmd.Flags().StringVarP(&opts.config, "config", "c", "", "patch table (YAML)")
	_ = checkCmd.MarkFlagRequired("config")

	applyCmd := &cobra.Command{
		Use:   "apply [image]",
		Short: "Applies a patch table to a copy of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, args[0])
		},
	}
	applyCmd.Flags().StringVarP(&opts.config, "config", "c", "", "patch table (YAML)")
	applyCmd.Flags().StringVarP(&opts.output, "output", "o", "", "where to write the patched image")
	applyCmd.Flags().BoolVar(&opts.restore, "restore", false, "restore after applying and verify the image round-trips")
	_ = applyCmd.MarkFlagRequired("config")
	_ = applyCmd.MarkFlagRequired("output")

	root.AddCommand(scanCmd, checkCmd, applyCmd)
	return root
}

func parseBase(s string) (process.ProcessMemoryAddress, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid base address %q: %w", s, err)
	}
	return process.ProcessMemoryAddress(v), nil
}

func openImage(path, base string) (*process_blob.ProcessBlob, error) {
	addr, err := parseBase(base)
	if err != nil {
		return nil, err
	}
	return process_blob.Open(path, addr)
}

// newImageEngine patches blob as if it were every module the table names.
// There are no page protections on a byte buffer.
func newImageEngine(table *patch.Table, blob *process_blob.ProcessBlob) (*patch.Engine, error) {
	return patch.New(table,
		patch.WithMemory(blob),
		patch.WithLocator(blob),
		patch.WithProtector(protect.Noop{}),
		patch.WithResolver(func(string) (string, error) {
			return blob.Name(), nil
		}),
	)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
