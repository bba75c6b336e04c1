package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rmohr/treereduce/pkg/run"
)

type rootOpts struct {
	verbosity string
	logFormat string
}

var rootopts = rootOpts{}

var rootCmd = &cobra.Command{
	Use:   "treereduce",
	Short: "treereduce shrinks inputs while they keep triggering a property",
	Long: `The tool parses an input with a grammar and removes as much of it as possible, asking a test
command after every change whether the property of interest, typically a compiler crash, is still there`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(rootopts.verbosity, rootopts.logFormat)
	},
}

func setupLogging(verbosity, format string) error {
	v, err := run.ParseVerbosity(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(v.Level())
	switch format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format '%s', expected one of text | json", format)
	}
	return nil
}

func Execute() {
	rootCmd.PersistentFlags().StringVar(&rootopts.verbosity, "verbosity", run.DefaultVerbosity.String(), "how much to log: "+run.VerbosityOptions())
	rootCmd.PersistentFlags().StringVar(&rootopts.logFormat, "log-format", "text", "log format: text | json")

	rootCmd.AddCommand(NewReduceCmd())
	rootCmd.AddCommand(NewStripCmd())
	rootCmd.AddCommand(NewTablesCmd())
	rootCmd.AddCommand(NewTreeCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
