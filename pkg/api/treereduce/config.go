package treereduce

// RunConfig is the YAML form of the reduce command line. Fields left empty
// keep the flag values.
type RunConfig struct {
	Input                string            `json:"input,omitempty"`
	Output               string            `json:"output,omitempty"`
	OutputDir            string            `json:"outputDir,omitempty"`
	Grammar              string            `json:"grammar,omitempty"`
	Replacements         string            `json:"replacements,omitempty"`
	Reducer              string            `json:"reducer,omitempty"`
	ListReduction        string            `json:"listReduction,omitempty"`
	Test                 []string          `json:"test,omitempty"`
	Join                 string            `json:"join,omitempty"`
	TryFormat            *bool             `json:"tryFormat,omitempty"`
	Limits               Limits            `json:"limits,omitempty"`
	Keep                 Keep              `json:"keep,omitempty"`
	Cache                *int              `json:"cache,omitempty"`
	CountTokens          *bool             `json:"countTokens,omitempty"`
	Verbosity            string            `json:"verbosity,omitempty"`
	StatsCSV             string            `json:"statsCSV,omitempty"`
	StatsJSON            string            `json:"statsJSON,omitempty"`
	Metrics              string            `json:"metrics,omitempty"`
	Archive              string            `json:"archive,omitempty"`
	ReplacementOverrides map[string]string `json:"replacementOverrides,omitempty"`
}

type Limits struct {
	Size   *int `json:"size,omitempty"`
	Checks *int `json:"checks,omitempty"`
	// Time is the wall time limit in milliseconds.
	Time *int `json:"time,omitempty"`
}

type Keep struct {
	Successful       bool `json:"successful,omitempty"`
	Unsuccessful     bool `json:"unsuccessful,omitempty"`
	IterationResults bool `json:"iterationResults,omitempty"`
}
