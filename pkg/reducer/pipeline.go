package reducer

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

// Pipeline runs strategies one after the other. Every stage after the first
// starts from a fresh parse of the best text so far.
type Pipeline struct {
	Stages []run.Reducer
	// Fixpoint repeats all stages while the text keeps shrinking.
	Fixpoint bool
	Loader   TreeLoader
}

// NewPipeline creates a pipeline from a name like "Perses|HDD|*".
func NewPipeline(name string, cfg Config) (*Pipeline, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("pipeline %s requires a loader", name)
	}
	parts := strings.Split(name, stageSeparator)
	p := &Pipeline{Loader: cfg.Loader}
	if parts[len(parts)-1] == fixpointSuffix {
		p.Fixpoint = true
		parts = parts[:len(parts)-1]
	}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("pipeline %s has an empty stage", name)
		}
		stage, err := New(part, cfg)
		if err != nil {
			return nil, err
		}
		p.Stages = append(p.Stages, stage)
	}
	if len(p.Stages) == 0 {
		return nil, fmt.Errorf("pipeline %s has no stages", name)
	}
	return p, nil
}

// Name lists the stage names and ends with "*" for a fixpoint pipeline. It
// is the name New accepts, so reports and configuration files name the
// pipeline that can be rebuilt from them.
func (p *Pipeline) Name() string {
	names := make([]string, 0, len(p.Stages)+1)
	for _, stage := range p.Stages {
		names = append(names, stage.Name())
	}
	if p.Fixpoint {
		names = append(names, fixpointSuffix)
	}
	return strings.Join(names, stageSeparator)
}

func (p *Pipeline) Reduce(t *tree.Tree, r *run.Run) (string, error) {
	current := t
	text := t.Print(t.Root())
	size := len(text)
	for round := 0; ; round++ {
		for i, stage := range p.Stages {
			if round > 0 || i > 0 {
				loaded, err := p.load(r, text)
				if err != nil {
					return "", err
				}
				current = loaded
			}
			logrus.Debugf("pipeline round %d: running %s", round, stage.Name())
			reduced, err := stage.Reduce(current, r)
			if err != nil {
				return "", err
			}
			text = reduced
		}
		if !p.Fixpoint || len(text) >= size {
			return text, nil
		}
		size = len(text)
	}
}

// load re-parses an intermediate result without charging the time to the
// reduction.
func (p *Pipeline) load(r *run.Run, text string) (*tree.Tree, error) {
	r.Pause()
	defer r.Resume()
	t, err := p.Loader.Load(text)
	if err != nil {
		return nil, fmt.Errorf("failed to re-parse intermediate result: %v", err)
	}
	return t, nil
}
