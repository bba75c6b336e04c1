package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"

	"github.com/rmohr/treereduce/pkg/artifacts"
)

// External runs a command on every candidate. The candidate is written to
// a test file next to the result file and appended to the command line.
// A non-zero exit status means the property still holds.
type External struct {
	Command []string
	// Output holds the result file, the test file and kept candidates.
	Output     *artifacts.Helper
	ResultFile string
	// Timeout bounds a single invocation, zero means no bound. A command
	// that times out counts as not showing the property.
	Timeout time.Duration

	KeepSuccessful   bool
	KeepUnsuccessful bool

	counter int
}

func NewExternal(command string, output *artifacts.Helper, resultFile string) (*External, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("failed to split test command '%s': %v", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty test command")
	}
	return &External{Command: args, Output: output, ResultFile: resultFile}, nil
}

func (e *External) TestFile() string {
	return artifacts.InsertBeforeExtension(e.ResultFile, "test")
}

func (e *External) Test(ctx context.Context, text string) (bool, error) {
	if err := e.Output.Write(e.TestFile(), text); err != nil {
		return false, err
	}

	holds, err := e.execute(ctx)
	if err != nil {
		return false, err
	}

	if holds {
		if err := e.Output.Write(e.ResultFile, text); err != nil {
			return false, err
		}
	}
	if (holds && e.KeepSuccessful) || (!holds && e.KeepUnsuccessful) {
		if _, err := e.Output.WriteNumbered(e.ResultFile, e.counter, text); err != nil {
			return false, err
		}
	}
	e.counter++
	return holds, nil
}

func (e *External) execute(ctx context.Context) (bool, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.Command[1:]...), e.Output.Path(e.TestFile()))
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		log.Debugf("test command timed out after %v", e.Timeout)
		return false, nil
	} else if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Tracef("test command exited with %d: %s", exitErr.ExitCode(), output.String())
		return true, nil
	} else if err != nil {
		log.Warnf("failed to run test command %v: %v", e.Command, err)
		return false, nil
	}
	return false, nil
}

// Cleanup removes the test file.
func (e *External) Cleanup() {
	file := e.Output.Path(e.TestFile())
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to remove %s: %v", file, err)
	}
}

// Func adapts a plain function.
type Func func(text string) bool

func (f Func) Test(_ context.Context, text string) (bool, error) {
	return f(text), nil
}

func (f Func) Cleanup() {}
