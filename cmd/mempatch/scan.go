package main

import (
	"fmt"

	"mempatch/hexdump"
	"mempatch/signature"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func runScan(cmd *cobra.Command, opts *options, imagePath, sig string) error {
	pattern, err := signature.Parse(sig)
	if err != nil {
		return err
	}

	blob, err := openImage(imagePath, opts.base)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	matches := blob.ScanModuleAll(pattern)
	fmt.Fprintf(out, "Scanning %s for: %s\n", blob.Name(), pattern.String())
	fmt.Fprintf(out, "Found %d matches\n", len(matches))

	data := blob.Data()
	for _, addr := range matches {
		offset, _ := blob.Offset(addr)
		fmt.Fprintf(out, "\n%s %s (offset 0x%x)\n", color.New(color.FgYellow).Sprint("Match at"), addr.ToString(), offset)
		hexdump.Context(out, data, uint64(blob.BaseAddress()), offset, len(pattern), opts.context, opts.context)
	}

	return nil
}
