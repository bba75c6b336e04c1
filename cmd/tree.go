package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmohr/treereduce/cmd/template"
	"github.com/rmohr/treereduce/pkg/tree"
)

type treeOpts struct {
	input     string
	grammar   string
	statsOnly bool
}

var treeopts = treeOpts{}

func NewTreeCmd() *cobra.Command {
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "print the parse tree of an input",
		Long:  `tree parses an input and prints the syntax tree followed by statistics about its nodes`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := parseInput(treeopts.grammar, treeopts.input)
			if err != nil {
				return err
			}
			if !treeopts.statsOnly {
				if err := printTree(cmd.OutOrStdout(), t); err != nil {
					return err
				}
			}
			return template.RenderStatistics(cmd.OutOrStdout(), t.Statistics(t.Root()))
		},
	}

	treeCmd.PersistentFlags().StringVarP(&treeopts.input, "in", "i", "", "input file")
	treeCmd.PersistentFlags().StringVarP(&treeopts.grammar, "grammar", "g", "", "grammar file of the input language")
	treeCmd.PersistentFlags().BoolVar(&treeopts.statsOnly, "stats-only", false, "only print the statistics")
	treeCmd.MarkPersistentFlagRequired("in")
	treeCmd.MarkPersistentFlagRequired("grammar")
	return treeCmd
}

// printTree prints one node per line, indented by depth. Expected symbols
// that differ from the node's symbol are shown in brackets.
func printTree(w io.Writer, t *tree.Tree) error {
	var visit func(id tree.NodeID, depth int) error
	visit = func(id tree.NodeID, depth int) error {
		indent := strings.Repeat("  ", depth)
		label := string(t.Symbol(id))
		if expected := t.Expected(id); expected != t.Symbol(id) {
			label = fmt.Sprintf("%s [%s]", label, expected)
		}
		if t.IsLeaf(id) {
			label = fmt.Sprintf("%s %q", label, t.Token(id).Text)
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, label); err != nil {
			return fmt.Errorf("failed to write tree: %v", err)
		}
		for _, child := range t.Children(id) {
			if err := visit(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if t.Root() == tree.None {
		return nil
	}
	return visit(t.Root(), 0)
}
