package reducer

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/oracle"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

const program = "a = 1 + 2;\nprint (x + 3);\nb = a - 4;\n"

type fixture struct {
	grammar *grammar.Grammar
	joiner  *printer.Joiner
	tables  *grammar.Tables
}

func newFixture(g *WithT) *fixture {
	gr, err := grammar.LoadGrammarFile("testdata/stmts.yaml")
	g.Expect(err).ToNot(HaveOccurred())
	j := printer.NewJoiner(gr.Lexer(), false)
	tables, err := gr.ComputeTables(j.Join, nil)
	g.Expect(err).ToNot(HaveOccurred())
	return &fixture{grammar: gr, joiner: j, tables: tables}
}

func (f *fixture) config() Config {
	return Config{Tables: f.tables, Joiner: f.joiner, Loader: GrammarLoader{Grammar: f.grammar}}
}

func (f *fixture) parses(text string) bool {
	_, err := f.grammar.Parse(text)
	return err == nil
}

func (f *fixture) parse(g *WithT, text string) *tree.Tree {
	t, err := f.grammar.Parse(text)
	g.Expect(err).ToNot(HaveOccurred())
	return t
}

// recorder remembers every candidate the oracle saw.
type recorder struct {
	holds  func(text string) bool
	tested []string
}

func (r *recorder) oracle() oracle.Func {
	return func(text string) bool {
		r.tested = append(r.tested, text)
		return r.holds(text)
	}
}

func reduce(g *WithT, t *tree.Tree, red run.Reducer, rec *recorder, cache bool) (string, *run.Run) {
	logger, _ := logtest.NewNullLogger()
	r, err := run.New(t, red, rec.oracle(), run.Options{Cache: cache, Logger: logger})
	g.Expect(err).ToNot(HaveOccurred())
	result, err := r.Start(context.Background())
	g.Expect(err).ToNot(HaveOccurred())
	return result, r
}

func TestAllStrategiesKeepTheProperty(t *testing.T) {
	names := append(Names(), "Perses|HDD", "DDMinLines|GTR|*")
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			f := newFixture(g)
			red, err := New(name, f.config())
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(red.Name()).To(Equal(name))

			rec := &recorder{holds: func(text string) bool {
				return strings.Contains(text, "x") && f.parses(text)
			}}
			result, r := reduce(g, f.parse(g, program), red, rec, true)

			g.Expect(result).To(ContainSubstring("x"))
			g.Expect(f.parses(result)).To(BeTrue())
			g.Expect(r.Iterations()).ToNot(BeEmpty())
			if name == "PersesPreReducer" {
				// the tree is below the size the pre-reducer works on
				g.Expect(result).To(Equal(program))
			} else {
				g.Expect(len(result)).To(BeNumerically("<", len(program)))
			}
		})
	}
}

func TestNew(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)

	tests := []struct {
		name string
		cfg  Config
		err  string
	}{
		{name: "Nope", cfg: f.config(), err: "unknown reducer 'Nope'"},
		{name: "PersesPreReducer*", cfg: f.config(), err: "unknown reducer 'PersesPreReducer*'"},
		{name: "HDD", cfg: Config{}, err: "requires a joiner"},
		{name: "Perses", cfg: Config{Joiner: f.joiner}, err: "requires grammar tables"},
		{name: "Pardis", cfg: Config{Joiner: f.joiner, ListReduction: "Unknown"}, err: "Unknown"},
		{name: "HDD|Perses", cfg: Config{Joiner: f.joiner, Tables: f.tables}, err: "requires a loader"},
		{name: "HDD||Perses", cfg: f.config(), err: "empty stage"},
		{name: "Pardis", cfg: Config{Joiner: f.joiner}},
		{name: "BaseHDD*", cfg: Config{Joiner: f.joiner}},
		{name: "GTRNoFiltering", cfg: Config{Joiner: f.joiner}},
		{name: "OPDDChars*", cfg: Config{Joiner: f.joiner}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			red, err := New(tt.name, tt.cfg)
			if tt.err != "" {
				g.Expect(err).To(MatchError(ContainSubstring(tt.err)))
				g.Expect(red).To(BeNil())
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(red.Name()).To(Equal(tt.name))
		})
	}
}

func TestNames(t *testing.T) {
	g := NewGomegaWithT(t)
	names := Names()
	g.Expect(names).To(ContainElements("HDD", "HDD*", "HDDr_BF_FW*", "Perses", "PersesPreReducer", "PardisHybrid*", "GTRNoFiltering", "DDMinTokens"))
	g.Expect(names).ToNot(ContainElement("PersesPreReducer*"))
	g.Expect(names).To(HaveLen(2*len(factories) - len(singlePass)))
}

func TestListReductionOverride(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)
	cfg := f.config()
	cfg.ListReduction = "DDMinReverse"

	red, err := New("Perses", cfg)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(red.(*Perses).ListReduction.Name()).To(Equal("DDMinReverse"))

	red, err = New("Pardis", f.config())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(red.(*Pardis).ListReduction.Name()).To(Equal("OPDD"))
}

func TestPlusListsKeepAnItem(t *testing.T) {
	for _, name := range []string{"Perses", "Pardis", "PardisHybrid", "GTR", "CoarseHDD"} {
		t.Run(name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			f := newFixture(g)
			red, err := New(name, f.config())
			g.Expect(err).ToNot(HaveOccurred())

			rec := &recorder{holds: func(string) bool { return true }}
			result, _ := reduce(g, f.parse(g, "a = 1;\nb = 2;\n"), red, rec, false)

			g.Expect(rec.tested).ToNot(BeEmpty())
			for _, text := range rec.tested {
				g.Expect(text).To(ContainSubstring(";"))
			}
			g.Expect(result).To(ContainSubstring(";"))
		})
	}
}

func TestPardisCandidatesStayGrammatical(t *testing.T) {
	g := NewGomegaWithT(t)
	f := newFixture(g)
	red, err := New("Pardis*", f.config())
	g.Expect(err).ToNot(HaveOccurred())

	rec := &recorder{holds: func(string) bool { return true }}
	result, _ := reduce(g, f.parse(g, "a = 1;\n{ b = 2 + c; }\n"), red, rec, false)

	for _, text := range rec.tested {
		g.Expect(f.parses(text)).To(BeTrue(), text)
	}
	g.Expect(f.parses(result)).To(BeTrue())
}
