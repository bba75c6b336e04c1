package main

import (
	"cmp"
	"slices"

	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"

	"github.com/rmohr/treereduce/pkg/api/treereduce"
)

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// applyRunConfig copies the values of a run configuration into opts. Flags
// given on the command line keep their value.
func applyRunConfig(flags *pflag.FlagSet, cfg *treereduce.RunConfig, opts *reduceOpts) {
	setString := func(name string, target *string, value string) {
		if value != "" && !flags.Changed(name) {
			*target = value
		}
	}
	setInt := func(name string, target *int, value *int) {
		if value != nil && !flags.Changed(name) {
			*target = *value
		}
	}
	setBool := func(name string, target *bool, value *bool) {
		if value != nil && !flags.Changed(name) {
			*target = *value
		}
	}

	setString("in", &opts.input, cfg.Input)
	setString("out", &opts.output, cfg.Output)
	setString("out-dir", &opts.outputDir, cfg.OutputDir)
	setString("grammar", &opts.grammar, cfg.Grammar)
	setString("replacements", &opts.replacements, cfg.Replacements)
	setString("reduce", &opts.reducer, cfg.Reducer)
	setString("list-reduction", &opts.listReduction, cfg.ListReduction)
	setString("join", &opts.join, cfg.Join)
	setString("verbosity", &opts.verbosity, cfg.Verbosity)
	setString("stats-csv", &opts.statsCSV, cfg.StatsCSV)
	setString("stats-json", &opts.statsJSON, cfg.StatsJSON)
	setString("metrics", &opts.metrics, cfg.Metrics)
	setString("archive", &opts.archive, cfg.Archive)
	setBool("try-format", &opts.tryFormat, cfg.TryFormat)
	setBool("count-tokens", &opts.countTokens, cfg.CountTokens)
	setInt("size-limit", &opts.sizeLimit, cfg.Limits.Size)
	setInt("check-limit", &opts.checkLimit, cfg.Limits.Checks)
	setInt("time-limit", &opts.timeLimit, cfg.Limits.Time)

	if len(cfg.Test) > 0 && !flags.Changed("test") {
		opts.testArgs = cfg.Test
	}
	if cfg.Cache != nil && !flags.Changed("cache") {
		opts.cache = *cfg.Cache
		opts.cacheEnabled = true
	}
	opts.keepSuccessful = opts.keepSuccessful || cfg.Keep.Successful
	opts.keepUnsuccessful = opts.keepUnsuccessful || cfg.Keep.Unsuccessful
	opts.keepIterationResults = opts.keepIterationResults || cfg.Keep.IterationResults
	opts.overrides = cfg.ReplacementOverrides
}

// configuration is the part of the options that ends up in the JSON
// statistics.
func configuration(opts *reduceOpts, reducerName string) map[string]interface{} {
	config := map[string]interface{}{
		"input":       opts.input,
		"grammar":     opts.grammar,
		"reducer":     reducerName,
		"join":        opts.join,
		"tryFormat":   opts.tryFormat,
		"countTokens": opts.countTokens,
	}
	if opts.listReduction != "" {
		config["listReduction"] = opts.listReduction
	}
	if opts.test != "" {
		config["test"] = opts.test
	} else if len(opts.testArgs) > 0 {
		config["test"] = opts.testArgs
	}
	if opts.replacements != "" {
		config["replacements"] = opts.replacements
	}
	if opts.cacheEnabled {
		config["cache"] = opts.cache
	}
	limits := map[string]int{"size": opts.sizeLimit, "checks": opts.checkLimit, "time": opts.timeLimit}
	for _, name := range sortedKeys(limits) {
		if limits[name] >= 0 {
			config[name+"Limit"] = limits[name]
		}
	}
	return config
}
