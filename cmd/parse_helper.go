package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/tree"
)

func parseInput(grammarFile, input string) (*grammar.Grammar, *tree.Tree, error) {
	if grammarFile == "" {
		return nil, nil, fmt.Errorf("no grammar given")
	}
	gr, err := grammar.LoadGrammarFile(grammarFile)
	if err != nil {
		return nil, nil, err
	}
	if input == "" {
		return gr, nil, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input %s: %v", input, err)
	}
	t, err := gr.Parse(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse input %s: %v", input, err)
	}
	return gr, t, nil
}

// writeOutput writes to the file or, without one, to stdout.
func writeOutput(file string, stdout io.Writer, data []byte) error {
	if file == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(file, data, 0666); err != nil {
		return fmt.Errorf("failed to write %s: %v", file, err)
	}
	return nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %v", err)
	}
	return string(data), nil
}
