package reducer

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/rmohr/treereduce/pkg/dd"
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/printer"
	"github.com/rmohr/treereduce/pkg/run"
	"github.com/rmohr/treereduce/pkg/tree"
)

const (
	fixpointSuffix = "*"
	stageSeparator = "|"
)

// Config is what the strategies created by New share.
type Config struct {
	Tables *grammar.Tables
	Joiner *printer.Joiner
	// ListReduction replaces the default list reduction of a strategy.
	ListReduction string
	// Loader re-parses intermediate results between pipeline stages.
	Loader TreeLoader
}

func (c Config) listReduction(fallback string) (dd.Reduction, error) {
	name := c.ListReduction
	if name == "" {
		name = fallback
	}
	return dd.New(name)
}

func (c Config) tables(name string) (*grammar.Tables, error) {
	if c.Tables == nil {
		return nil, fmt.Errorf("reducer %s requires grammar tables", name)
	}
	return c.Tables, nil
}

type factory func(cfg Config, name string, fixpoint bool) (run.Reducer, error)

var factories = map[string]factory{
	"ListReducerTokens":  newListReducer[tree.Token](tokenSlicer{}, ""),
	"ListReducerLines":   newListReducer[string](lineSlicer{}, ""),
	"ListReducerChars":   newListReducer[string](charSlicer{}, ""),
	"DDMinTokens":        newListReducer[tree.Token](tokenSlicer{}, "DDMin"),
	"DDMinTokensReverse": newListReducer[tree.Token](tokenSlicer{}, "DDMinReverse"),
	"DDMinLines":         newListReducer[string](lineSlicer{}, "DDMin"),
	"DDMinLinesReverse":  newListReducer[string](lineSlicer{}, "DDMinReverse"),
	"DDMinChars":         newListReducer[string](charSlicer{}, "DDMin"),
	"DDMinCharsReverse":  newListReducer[string](charSlicer{}, "DDMinReverse"),
	"OPDDTokens":         newListReducer[tree.Token](tokenSlicer{}, "OPDD"),
	"OPDDTokensReverse":  newListReducer[tree.Token](tokenSlicer{}, "OPDDReverse"),
	"OPDDLines":          newListReducer[string](lineSlicer{}, "OPDD"),
	"OPDDLinesReverse":   newListReducer[string](lineSlicer{}, "OPDDReverse"),
	"OPDDChars":          newListReducer[string](charSlicer{}, "OPDD"),
	"OPDDCharsReverse":   newListReducer[string](charSlicer{}, "OPDDReverse"),

	"HDD":        newHDD(false, true),
	"BaseHDD":    newHDD(false, false),
	"CoarseHDD":  newHDD(true, true),
	"HDDr":       newHDDr(DepthFirst, Backward),
	"HDDr_DF_FW": newHDDr(DepthFirst, Forward),
	"HDDr_DF_BW": newHDDr(DepthFirst, Backward),
	"HDDr_BF_FW": newHDDr(BreadthFirst, Forward),
	"HDDr_BF_BW": newHDDr(BreadthFirst, Backward),

	"Perses":               newPerses(DefaultBFSDepth, false, 0, 0),
	"PersesUnbounded":      newPerses(UnboundedBFS, false, 0, 0),
	"PersesNoReplacements": newPerses(0, true, 0, 0),
	"PersesPreReducer":     newPerses(DefaultBFSDepth, false, PreReducerMinNodes, PreReducerMaxNodes),

	"Pardis":        newPardis(PardisPriority, false),
	"PardisHybrid":  newPardis(HybridPriority, true),
	"PardisPerses":  newPardis(PersesPriority, true),
	"PardisPersesN": newPardis(PersesPriority, false),

	"GTR":            newGTR(true),
	"GTRNoFiltering": newGTR(false),
}

// singlePass strategies have no fixpoint variant.
var singlePass = map[string]bool{
	"PersesPreReducer": true,
}

// New creates a strategy by name. A trailing "*" repeats the strategy while
// the result keeps shrinking, "A|B" chains strategies into a pipeline.
func New(name string, cfg Config) (run.Reducer, error) {
	if strings.Contains(name, stageSeparator) {
		p, err := NewPipeline(name, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	base := strings.TrimSuffix(name, fixpointSuffix)
	fixpoint := base != name
	create, exists := factories[base]
	if !exists || (fixpoint && singlePass[base]) {
		return nil, fmt.Errorf("unknown reducer '%s', expected one of %v", name, Names())
	}
	if cfg.Joiner == nil {
		return nil, fmt.Errorf("reducer %s requires a joiner", name)
	}
	return create(cfg, base, fixpoint)
}

// Names returns all strategy names New accepts, without pipelines.
func Names() []string {
	var names []string
	for _, name := range maps.Keys(factories) {
		names = append(names, name)
		if !singlePass[name] {
			names = append(names, name+fixpointSuffix)
		}
	}
	slices.Sort(names)
	return names
}

func displayName(name string, fixpoint bool) string {
	if fixpoint {
		return name + fixpointSuffix
	}
	return name
}

// repeat runs reduction iterations. Without fixpoint it stops after the
// first one, otherwise as soon as an iteration doesn't shrink the text.
func repeat(r *run.Run, size int, fixpoint bool, iterate func() (string, error)) (string, error) {
	return repeatMeasured(r, size, fixpoint, func(text string) int { return len(text) }, iterate)
}

// repeatMeasured is repeat with a custom size measure, the fixpoint is
// reached when an iteration doesn't lower the measured size.
func repeatMeasured(r *run.Run, size int, fixpoint bool, measure func(text string) int, iterate func() (string, error)) (string, error) {
	for {
		text, err := iterate()
		if err != nil {
			return "", err
		}
		if err := r.FinishIteration(); err != nil {
			return "", err
		}
		current := measure(text)
		if !fixpoint || current >= size {
			return text, nil
		}
		size = current
	}
}

// removedExcept marks all nodes as removed but the kept ones.
func removedExcept(base tree.NodeSet, nodes []tree.NodeID, kept []tree.NodeID) tree.NodeSet {
	removed := base.Clone()
	removed.Add(nodes...)
	for _, id := range kept {
		removed.Remove(id)
	}
	return removed
}

func nonTerminals(t *tree.Tree, ids []tree.NodeID) []tree.NodeID {
	var inner []tree.NodeID
	for _, id := range ids {
		if !t.IsLeaf(id) {
			inner = append(inner, id)
		}
	}
	return inner
}

// keptChildren counts the children of a node that are not removed.
func keptChildren(t *tree.Tree, id tree.NodeID, removed tree.NodeSet) int {
	kept := 0
	for _, child := range t.Children(id) {
		if !removed.Has(child) {
			kept++
		}
	}
	return kept
}
