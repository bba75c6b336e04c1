package run

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rmohr/treereduce/pkg/api"
)

// Stats collects the finished run into the exported document. A nil filter
// keeps all steps.
func (r *Run) Stats(configuration map[string]interface{}, filter api.StepFilter) *api.Stats {
	r.assertStopped()
	if filter == nil {
		filter = api.AllSteps
	}
	stats := &api.Stats{
		ID:                 r.id,
		Timestamp:          r.created,
		Reducer:            r.reducer.Name(),
		Configuration:      configuration,
		Steps:              []api.Step{},
		Iterations:         r.Iterations(),
		Aborted:            r.aborted,
		TotalTime:          r.Duration().Milliseconds(),
		WallTime:           r.WallTime().Milliseconds(),
		TimeInTestFunction: r.inOracle.Milliseconds(),
		NumberOfChecks:     r.checks,
	}
	if stats.Iterations == nil {
		stats.Iterations = []api.Iteration{}
	}
	for _, step := range r.steps {
		if filter(step) {
			stats.Steps = append(stats.Steps, step)
		}
	}
	return stats
}

// WriteCSV writes one line per step.
func (r *Run) WriteCSV(w io.Writer, filter api.StepFilter) error {
	if filter == nil {
		filter = api.AllSteps
	}
	for _, step := range r.steps {
		if !filter(step) {
			continue
		}
		if _, err := fmt.Fprintln(w, step.String()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Run) WriteCSVFile(file string, filter api.StepFilter) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %v", file, err)
	}
	defer f.Close()
	if err := r.WriteCSV(f, filter); err != nil {
		return fmt.Errorf("failed to write statistics to %s: %v", file, err)
	}
	return nil
}

func (r *Run) WriteJSONFile(file string, configuration map[string]interface{}, filter api.StepFilter) error {
	data, err := json.MarshalIndent(r.Stats(configuration, filter), "", "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %v", err)
	}
	if err := os.WriteFile(file, append(data, '\n'), 0666); err != nil {
		return fmt.Errorf("failed to write statistics to %s: %v", file, err)
	}
	return nil
}
