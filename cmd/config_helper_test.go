package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/rmohr/treereduce/pkg/api/treereduce"
	"github.com/rmohr/treereduce/pkg/run"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func parseFlags(g *WithT, args ...string) (*pflag.FlagSet, *reduceOpts) {
	opts := &reduceOpts{}
	flags := pflag.NewFlagSet("reduce", pflag.ContinueOnError)
	addReduceFlags(flags, opts)
	g.Expect(flags.Parse(args)).To(Succeed())
	return flags, opts
}

func TestSortedKeys(t *testing.T) {
	g := NewGomegaWithT(t)
	g.Expect(sortedKeys(map[string]int{"b": 1, "c": 2, "a": 3})).To(Equal([]string{"a", "b", "c"}))
	g.Expect(sortedKeys(map[string]int{})).To(BeEmpty())
}

func TestApplyRunConfig(t *testing.T) {
	cfg := &treereduce.RunConfig{
		Input:       "in.c",
		Grammar:     "c.yaml",
		Reducer:     "Perses*",
		Test:        []string{"./crash.sh"},
		TryFormat:   boolPtr(true),
		Limits:      treereduce.Limits{Checks: intPtr(100), Time: intPtr(5000)},
		Keep:        treereduce.Keep{Successful: true},
		Cache:       intPtr(64),
		StatsJSON:   "stats.json",
		CountTokens: boolPtr(true),
		ReplacementOverrides: map[string]string{
			"expr": "0",
		},
	}

	tests := []struct {
		name   string
		args   []string
		verify func(g *WithT, opts *reduceOpts)
	}{
		{
			name: "file values fill unset flags",
			verify: func(g *WithT, opts *reduceOpts) {
				g.Expect(opts.input).To(Equal("in.c"))
				g.Expect(opts.grammar).To(Equal("c.yaml"))
				g.Expect(opts.reducer).To(Equal("Perses*"))
				g.Expect(opts.testArgs).To(Equal([]string{"./crash.sh"}))
				g.Expect(opts.tryFormat).To(BeTrue())
				g.Expect(opts.checkLimit).To(Equal(100))
				g.Expect(opts.timeLimit).To(Equal(5000))
				g.Expect(opts.sizeLimit).To(Equal(run.NoLimit))
				g.Expect(opts.keepSuccessful).To(BeTrue())
				g.Expect(opts.keepUnsuccessful).To(BeFalse())
				g.Expect(opts.cacheEnabled).To(BeTrue())
				g.Expect(opts.cache).To(Equal(64))
				g.Expect(opts.statsJSON).To(Equal("stats.json"))
				g.Expect(opts.countTokens).To(BeTrue())
				g.Expect(opts.overrides).To(HaveKeyWithValue("expr", "0"))
				g.Expect(opts.join).To(Equal(" "))
			},
		},
		{
			name: "explicit flags win",
			args: []string{"-r", "HDD", "--check-limit", "7", "--try-format=false", "--cache", "3", "-i", "other.c"},
			verify: func(g *WithT, opts *reduceOpts) {
				g.Expect(opts.input).To(Equal("other.c"))
				g.Expect(opts.reducer).To(Equal("HDD"))
				g.Expect(opts.checkLimit).To(Equal(7))
				g.Expect(opts.tryFormat).To(BeFalse())
				g.Expect(opts.cache).To(Equal(3))
				g.Expect(opts.cacheEnabled).To(BeFalse())
				g.Expect(opts.timeLimit).To(Equal(5000))
			},
		},
		{
			name: "a test command on the command line replaces the file's",
			args: []string{"-t", "./other.sh"},
			verify: func(g *WithT, opts *reduceOpts) {
				g.Expect(opts.test).To(Equal("./other.sh"))
				g.Expect(opts.testArgs).To(BeEmpty())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGomegaWithT(t)
			flags, opts := parseFlags(g, tt.args...)
			applyRunConfig(flags, cfg, opts)
			tt.verify(g, opts)
		})
	}
}

func TestLoadRunConfig(t *testing.T) {
	g := NewGomegaWithT(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "run.yaml")
	g.Expect(os.WriteFile(file, []byte(`
input: in.c
reducer: GTR*
test: ["sh", "-c", "exit 1"]
limits:
  checks: 10
keep:
  iterationResults: true
replacementOverrides:
  ID: x
`), 0666)).To(Succeed())

	cfg, err := loadRunConfig(file)
	g.Expect(err).Should(BeNil())
	g.Expect(cfg.Input).To(Equal("in.c"))
	g.Expect(cfg.Test).To(Equal([]string{"sh", "-c", "exit 1"}))
	g.Expect(*cfg.Limits.Checks).To(Equal(10))
	g.Expect(cfg.Limits.Size).To(BeNil())
	g.Expect(cfg.Keep.IterationResults).To(BeTrue())
	g.Expect(cfg.ReplacementOverrides).To(Equal(map[string]string{"ID": "x"}))

	g.Expect(os.WriteFile(file, []byte("reduction: GTR\n"), 0666)).To(Succeed())
	_, err = loadRunConfig(file)
	g.Expect(err).To(MatchError(ContainSubstring("failed to parse run configuration")))
}

func TestConfiguration(t *testing.T) {
	g := NewGomegaWithT(t)
	opts := &reduceOpts{input: "in.c", grammar: "c.yaml", join: " ", testArgs: []string{"./crash.sh"}, sizeLimit: 0, checkLimit: 10, timeLimit: run.NoLimit, cacheEnabled: true}
	config := configuration(opts, "GTR*")
	g.Expect(sortedKeys(config)).To(Equal([]string{"cache", "checksLimit", "countTokens", "grammar", "input", "join", "reducer", "sizeLimit", "test", "tryFormat"}))
	g.Expect(config["reducer"]).To(Equal("GTR*"))
	g.Expect(config["cache"]).To(Equal(0))
	g.Expect(config["sizeLimit"]).To(Equal(0))
}
