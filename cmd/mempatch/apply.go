package main

import (
	"bytes"
	"fmt"
	"os"

	"mempatch/patch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func runApply(cmd *cobra.Command, opts *options, imagePath string) error {
	table, err := patch.LoadTable(opts.config)
	if err != nil {
		return err
	}

	info, err := os.Stat(imagePath)
	if err != nil {
		return err
	}

	blob, err := openImage(imagePath, opts.base)
	if err != nil {
		return err
	}
	original := blob.Data()

	engine, err := newImageEngine(table, blob)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)

	count := engine.ApplyAll()
	for _, name := range table.Names() {
		if engine.IsApplied(name) {
			fmt.Fprintf(out, "%s %s\n", ok.Sprint("APPLIED"), name)
		} else {
			fmt.Fprintf(out, "%s %s\n", fail.Sprint("SKIPPED"), name)
		}
	}

	// A partially patched image is never written out
	if count != table.Len() {
		return fmt.Errorf("applied %d of %d patches, not writing %s", count, table.Len(), opts.output)
	}

	if err := os.WriteFile(opts.output, blob.Data(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write patched image: %w", err)
	}
	fmt.Fprintf(out, "Wrote %s (%d patches)\n", opts.output, count)

	if !opts.restore {
		return nil
	}

	if errs := engine.RestoreAllErr(); len(errs) > 0 {
		return fmt.Errorf("restore failed: %w", errs[0])
	}
	if !bytes.Equal(blob.Data(), original) {
		return fmt.Errorf("restored image differs from %s", imagePath)
	}
	fmt.Fprintf(out, "%s restored image matches %s\n", ok.Sprint("OK"), imagePath)
	return nil
}
