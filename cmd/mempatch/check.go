package main

import (
	"fmt"

	"mempatch/patch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func runCheck(cmd *cobra.Command, opts *options, imagePath string) error {
	table, err := patch.LoadTable(opts.config)
	if err != nil {
		return err
	}

	blob, err := openImage(imagePath, opts.base)
	if err != nil {
		return err
	}

	engine, err := newImageEngine(table, blob)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)

	failed := 0
	for _, name := range table.Names() {
		addr, err := engine.Validate(name)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", fail.Sprint("FAIL"), name, err)
			continue
		}
		fmt.Fprintf(out, "%s %s at %s\n", ok.Sprint("OK  "), name, addr.ToString())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d patches failed validation", failed, table.Len())
	}
	return nil
}
