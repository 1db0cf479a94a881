package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowscope/internal/ast"
	"flowscope/internal/driver"
	"flowscope/internal/ir"
	"flowscope/internal/source"
)

var irCmd = &cobra.Command{
	Use:   "ir <file.ast.json>",
	Short: "Print the IR of a syntax-tree dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		fileSet := source.NewFileSet()
		id, tree, err := fileSet.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load %q: %w", path, err)
		}
		mod, err := ast.Decode(tree, driver.ModuleName(path), id)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		prog, err := ir.Translate(mod)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return ir.Dump(cmd.OutOrStdout(), prog)
	},
}
