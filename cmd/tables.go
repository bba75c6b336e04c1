package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/tree"
)

type tablesOpts struct {
	grammar      string
	replacements string
	output       string
	join         string
}

var tablesopts = tablesOpts{}

// tablesOutput is the YAML document printed by the tables command.
type tablesOutput struct {
	Replacements     map[tree.Symbol]string   `json:"replacements"`
	Subsumption      map[tree.Symbol][]string `json:"subsumption"`
	PossibleSubTrees map[tree.Symbol][]string `json:"possibleSubTrees"`
}

func NewTablesCmd() *cobra.Command {
	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "print the grammar tables the reducers use",
		Long:  `tables prints the replacement text, the subsumption relation and the possible sub-trees of every symbol of a grammar as YAML`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gr, _, err := parseInput(tablesopts.grammar, "")
			if err != nil {
				return err
			}
			joiner := printer.NewJoiner(gr.Lexer(), false)
			joiner.Separator = tablesopts.join
			var overrides map[tree.Symbol][]tree.Token
			if tablesopts.replacements != "" {
				if overrides, err = gr.LoadReplacements(tablesopts.replacements); err != nil {
					return err
				}
			}
			tables, err := gr.ComputeTables(joiner.Join, overrides)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(toTablesOutput(joiner, tables))
			if err != nil {
				return fmt.Errorf("failed to marshal tables: %v", err)
			}
			return writeOutput(tablesopts.output, cmd.OutOrStdout(), data)
		},
	}

	tablesCmd.PersistentFlags().StringVarP(&tablesopts.grammar, "grammar", "g", "", "grammar file")
	tablesCmd.PersistentFlags().StringVar(&tablesopts.replacements, "replacements", "", "YAML file overriding the replacement text of symbols")
	tablesCmd.PersistentFlags().StringVarP(&tablesopts.output, "out", "o", "", "output file, stdout if not given")
	tablesCmd.PersistentFlags().StringVar(&tablesopts.join, "join", printer.DefaultSeparator, "separator between tokens that would otherwise merge")
	tablesCmd.MarkPersistentFlagRequired("grammar")
	return tablesCmd
}

func toTablesOutput(joiner *printer.Joiner, tables *grammar.Tables) *tablesOutput {
	out := &tablesOutput{
		Replacements:     joiner.JoinReplacements(tables.Replacements),
		Subsumption:      map[tree.Symbol][]string{},
		PossibleSubTrees: map[tree.Symbol][]string{},
	}
	for symbol, subsumed := range tables.Subsumption {
		for _, s := range subsumed.Sorted() {
			out.Subsumption[symbol] = append(out.Subsumption[symbol], string(s))
		}
	}
	for symbol, sequences := range tables.PossibleSubTrees {
		shapes := make([]string, 0, len(sequences))
		for _, seq := range sequences {
			shapes = append(shapes, seq.String())
		}
		out.PossibleSubTrees[symbol] = shapes
	}
	return out
}
