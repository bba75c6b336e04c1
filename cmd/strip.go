package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/tree"
)

type stripOpts struct {
	input     string
	output    string
	grammar   string
	tryFormat bool
}

var stripopts = stripOpts{}

func NewStripCmd() *cobra.Command {
	stripCmd := &cobra.Command{
		Use:   "strip [terminals]",
		Short: "remove all tokens of the given terminals from an input",
		Long: `strip drops every token of the given terminals and joins the remaining tokens. Terminals are given by
name or as quoted literal, e.g. "';'". Useful to get rid of comments or annotations before a reduction.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, terminals []string) error {
			gr, t, err := parseInput(stripopts.grammar, stripopts.input)
			if err != nil {
				return err
			}
			if t == nil {
				t, err = parseStdin(gr)
				if err != nil {
					return err
				}
			}
			symbols, err := resolveTerminals(gr, terminals)
			if err != nil {
				return err
			}
			removed := stripTerminals(t, symbols)
			logrus.Infof("Stripping %d tokens.", len(removed))
			joiner := printer.NewJoiner(gr.Lexer(), stripopts.tryFormat)
			return writeOutput(stripopts.output, cmd.OutOrStdout(), []byte(joiner.JoinTree(t, removed, nil)))
		},
	}

	stripCmd.PersistentFlags().StringVarP(&stripopts.input, "in", "i", "", "input file, stdin if not given")
	stripCmd.PersistentFlags().StringVarP(&stripopts.output, "out", "o", "", "output file, stdout if not given")
	stripCmd.PersistentFlags().StringVarP(&stripopts.grammar, "grammar", "g", "", "grammar file of the input language")
	stripCmd.PersistentFlags().BoolVar(&stripopts.tryFormat, "try-format", false, "keep line breaks of the input")
	stripCmd.MarkPersistentFlagRequired("grammar")
	return stripCmd
}

func parseStdin(gr *grammar.Grammar) (*tree.Tree, error) {
	data, err := readAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return gr.Parse(data)
}

func resolveTerminals(gr *grammar.Grammar, names []string) (map[tree.Symbol]bool, error) {
	symbols := map[tree.Symbol]bool{}
	for _, name := range names {
		symbol, err := gr.Terminal(name)
		if err != nil {
			return nil, err
		}
		symbols[symbol] = true
	}
	return symbols, nil
}

// stripTerminals returns the leaves with one of the symbols.
func stripTerminals(t *tree.Tree, symbols map[tree.Symbol]bool) tree.NodeSet {
	removed := tree.NewNodeSet()
	for _, leaf := range t.Leaves(t.Root()) {
		if symbols[t.Symbol(leaf)] {
			removed.Add(leaf)
		}
	}
	return removed
}
