package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/rmohr/treereduce/cmd/template"
	"github.com/rmohr/treereduce/pkg/api"
	"github.com/rmohr/treereduce/pkg/api/treereduce"
	"github.com/rmohr/treereduce/pkg/artifacts"
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/oracle"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/reducer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

type reduceOpts struct {
	input         string
	output        string
	outputDir     string
	grammar       string
	replacements  string
	reducer       string
	listReduction string
	test          string
	testArgs      []string
	join          string
	tryFormat     bool

	sizeLimit  int
	checkLimit int
	timeLimit  int

	keepAll              bool
	keepSuccessful       bool
	keepUnsuccessful     bool
	keepIterationResults bool

	statsCSV  string
	statsJSON string
	metrics   string
	archive   string

	cache        int
	cacheEnabled bool
	countTokens  bool

	config    string
	verbosity string
	overrides map[string]string
}

var reduceopts = reduceOpts{}

func NewReduceCmd() *cobra.Command {
	reduceCmd := &cobra.Command{
		Use:   "reduce",
		Short: "reduce an input while the test command keeps reporting the property",
		Long: `reduce parses the input with the grammar and runs the chosen reduction strategy. Every candidate is
written to a test file which is passed as last argument to the test command. A non-zero exit status means
the candidate still shows the property.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reduceopts.config != "" {
				cfg, err := loadRunConfig(reduceopts.config)
				if err != nil {
					return err
				}
				applyRunConfig(cmd.Flags(), cfg, &reduceopts)
				if reduceopts.verbosity != "" {
					if err := setupLogging(reduceopts.verbosity, rootopts.logFormat); err != nil {
						return err
					}
				}
			}
			reduceopts.cacheEnabled = reduceopts.cacheEnabled || cmd.Flags().Changed("cache")
			return reduce(&reduceopts)
		},
	}

	addReduceFlags(reduceCmd.PersistentFlags(), &reduceopts)
	return reduceCmd
}

func addReduceFlags(flags *pflag.FlagSet, opts *reduceOpts) {
	flags.StringVarP(&opts.input, "in", "i", "", "input file to reduce")
	flags.StringVarP(&opts.output, "out", "o", "", "where to write the reduced input (default <in>.reduced.<ext>)")
	flags.StringVar(&opts.outputDir, "out-dir", "", "directory for the result, the test file and kept candidates")
	flags.StringVarP(&opts.grammar, "grammar", "g", "", "grammar file of the input language")
	flags.StringVar(&opts.replacements, "replacements", "", "YAML file overriding the replacement text of symbols")
	flags.StringVarP(&opts.reducer, "reduce", "r", "GTR*", "reduction strategy, stages can be chained with '|'")
	flags.StringVar(&opts.listReduction, "list-reduction", "", "list reduction used by the strategy: DDMin | DDMinReverse | OPDD | OPDDReverse")
	flags.StringVarP(&opts.test, "test", "t", "", "test command, the candidate file is appended")
	flags.StringVar(&opts.join, "join", printer.DefaultSeparator, "separator between tokens that would otherwise merge")
	flags.BoolVar(&opts.tryFormat, "try-format", false, "keep line breaks of the input in reduced output")
	flags.IntVar(&opts.sizeLimit, "size-limit", run.NoLimit, "stop once the result is at most this many bytes, -1 disables the limit")
	flags.IntVar(&opts.checkLimit, "check-limit", run.NoLimit, "stop after this many tests, -1 disables the limit")
	flags.IntVar(&opts.timeLimit, "time-limit", run.NoLimit, "stop after this many milliseconds, -1 disables the limit")
	flags.BoolVar(&opts.keepAll, "keep-all", false, "keep all candidates and iteration results")
	flags.BoolVar(&opts.keepSuccessful, "keep-successful", false, "keep candidates showing the property")
	flags.BoolVar(&opts.keepUnsuccessful, "keep-unsuccessful", false, "keep candidates not showing the property")
	flags.BoolVar(&opts.keepIterationResults, "keep-iteration-results", false, "keep the result of every iteration")
	flags.StringVar(&opts.statsCSV, "stats-csv", "", "write the successful steps as CSV")
	flags.StringVar(&opts.statsJSON, "stats-json", "", "write all steps and the configuration as JSON")
	flags.StringVar(&opts.metrics, "metrics", "", "write Prometheus metrics in text format")
	flags.StringVar(&opts.archive, "archive", "", "bundle the output directory into a .tar.gz")
	flags.IntVar(&opts.cache, "cache", 0, "cache test verdicts, 0 keeps all, N keeps the N most recent")
	flags.BoolVar(&opts.countTokens, "count-tokens", false, "count the tokens of successful candidates")
	flags.StringVar(&opts.config, "config", "", "YAML run configuration, flags given explicitly win")
}

func loadRunConfig(file string) (*treereduce.RunConfig, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read run configuration %s: %v", file, err)
	}
	cfg := &treereduce.RunConfig{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run configuration %s: %v", file, err)
	}
	return cfg, nil
}

func reduce(opts *reduceOpts) error {
	if opts.input == "" {
		return fmt.Errorf("no input given")
	}
	logrus.Infof("Parsing %s.", opts.input)
	gr, t, err := parseInput(opts.grammar, opts.input)
	if err != nil {
		return err
	}

	joiner := printer.NewJoiner(gr.Lexer(), opts.tryFormat)
	joiner.Separator = opts.join
	overrides, err := loadOverrides(gr, opts)
	if err != nil {
		return err
	}
	tables, err := gr.ComputeTables(joiner.Join, overrides)
	if err != nil {
		return err
	}
	red, err := reducer.New(opts.reducer, reducer.Config{
		Tables:        tables,
		Joiner:        joiner,
		ListReduction: opts.listReduction,
		Loader:        reducer.GrammarLoader{Grammar: gr},
	})
	if err != nil {
		return err
	}

	output, err := outputHelper(opts)
	if err != nil {
		return err
	}
	resultFile := resultName(opts)
	ext, err := newOracle(opts, output, resultFile)
	if err != nil {
		return err
	}

	runOpts := run.Options{
		Cache:         opts.cacheEnabled,
		CacheCapacity: opts.cache,
		SizeLimit:     run.Limit(opts.sizeLimit),
		CheckLimit:    run.Limit(opts.checkLimit),
		TimeLimit:     run.Limit(time.Duration(opts.timeLimit) * time.Millisecond),
		Logger:        logrus.StandardLogger(),
	}
	if opts.countTokens {
		runOpts.Lexer = gr.Lexer()
	}
	if opts.keepAll || opts.keepIterationResults {
		runOpts.IterationResults = output
		runOpts.IterationFile = artifacts.InsertBeforeExtension(resultFile, "iteration")
	}
	if opts.metrics != "" {
		runOpts.Metrics = run.NewMetrics()
	}
	r, err := run.New(t, red, ext, runOpts)
	if err != nil {
		return err
	}

	config := configuration(opts, red.Name())
	for _, key := range sortedKeys(config) {
		logrus.Debugf("%s: %v", key, config[key])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logrus.Infof("Reducing %s with %s, writing to %s.", opts.input, red.Name(), output.Path(resultFile))
	result, reduceErr := r.Start(ctx)
	if result != "" {
		if err := output.Write(resultFile, result); err != nil {
			return err
		}
	}
	if reduceErr != nil {
		return reduceErr
	}

	if err := export(ctx, r, runOpts.Metrics, opts, output, config); err != nil {
		return err
	}
	return template.RenderSummary(os.Stdout, template.Summary{
		Reducer:      red.Name(),
		OriginalSize: r.OriginalSize(),
		ReducedSize:  r.ReducedSize(),
		Checks:       r.NumberOfChecks(),
		Reductions:   r.NumberOfReductions(),
		Duration:     r.Duration(),
		Aborted:      r.AbortReason(),
	})
}

func loadOverrides(gr *grammar.Grammar, opts *reduceOpts) (map[tree.Symbol][]tree.Token, error) {
	overrides := map[tree.Symbol][]tree.Token{}
	if opts.replacements != "" {
		loaded, err := gr.LoadReplacements(opts.replacements)
		if err != nil {
			return nil, err
		}
		for symbol, tokens := range loaded {
			overrides[symbol] = tokens
		}
	}
	if len(opts.overrides) > 0 {
		inline, err := gr.Replacements(opts.overrides)
		if err != nil {
			return nil, err
		}
		for symbol, tokens := range inline {
			overrides[symbol] = tokens
		}
	}
	return overrides, nil
}

func newOracle(opts *reduceOpts, output *artifacts.Helper, resultFile string) (*oracle.External, error) {
	var ext *oracle.External
	switch {
	case len(opts.testArgs) > 0 && opts.test == "":
		ext = &oracle.External{Command: opts.testArgs, Output: output, ResultFile: resultFile}
	case opts.test != "":
		var err error
		if ext, err = oracle.NewExternal(opts.test, output, resultFile); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("no test command given")
	}
	ext.KeepSuccessful = opts.keepAll || opts.keepSuccessful
	ext.KeepUnsuccessful = opts.keepAll || opts.keepUnsuccessful
	return ext, nil
}

// resultName is the file name of the result inside the output directory.
func resultName(opts *reduceOpts) string {
	if opts.output != "" {
		return filepath.Base(opts.output)
	}
	return filepath.Base(artifacts.InsertBeforeExtension(opts.input, "reduced"))
}

func outputHelper(opts *reduceOpts) (*artifacts.Helper, error) {
	dir := opts.outputDir
	switch {
	case opts.output != "" && dir == "":
		dir = filepath.Dir(opts.output)
	case dir == "":
		dir = filepath.Dir(opts.input)
		if !writable(dir) {
			dir = artifacts.DefaultDir(opts.input)
			logrus.Infof("%s is not writable, using %s.", filepath.Dir(opts.input), dir)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %v", dir, err)
	}
	return &artifacts.Helper{Dir: dir}, nil
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".treereduce-*")
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(f.Name())
	return true
}

func export(ctx context.Context, r *run.Run, metrics *run.Metrics, opts *reduceOpts, output *artifacts.Helper, config map[string]interface{}) error {
	if opts.statsCSV != "" {
		if err := r.WriteCSVFile(opts.statsCSV, api.OnlySuccessful); err != nil {
			return err
		}
	}
	if opts.statsJSON != "" {
		if err := r.WriteJSONFile(opts.statsJSON, config, api.AllSteps); err != nil {
			return err
		}
	}
	if metrics != nil {
		if err := metrics.WriteToTextfile(opts.metrics); err != nil {
			return err
		}
	}
	if opts.archive != "" {
		logrus.Infof("Archiving %s to %s.", output.Dir, opts.archive)
		if err := output.Archive(ctx, opts.archive); err != nil {
			return err
		}
	}
	return nil
}
