package api

import (
	"fmt"
	"time"
)

type Result string

const (
	Successful    Result = "SUCCESSFUL"
	NotSuccessful Result = "NOT_SUCCESSFUL"
)

// Step is one recorded oracle invocation. Step 0 is the original input.
// Times are milliseconds relative to the start of the run.
type Step struct {
	Index            int    `json:"index"`
	Timestamp        int64  `json:"timestamp"`
	VerificationTime int64  `json:"verificationTime"`
	Size             int    `json:"size"`
	Tokens           int    `json:"tokens"`
	Result           Result `json:"result"`
}

func (s Step) Successful() bool {
	return s.Result == Successful
}

// String renders the step as one CSV line.
func (s Step) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %s", s.Index, s.Timestamp, s.VerificationTime, s.Size, s.Tokens, s.Result)
}

type Iteration struct {
	Checks             int   `json:"checks"`
	Timestamp          int64 `json:"timestamp"`
	TimeInTestFunction int64 `json:"timeInTestFunction"`
}

type Stats struct {
	ID                 string                 `json:"id"`
	Timestamp          time.Time              `json:"timestamp"`
	Reducer            string                 `json:"reducer"`
	Configuration      map[string]interface{} `json:"configuration,omitempty"`
	Steps              []Step                 `json:"steps"`
	Iterations         []Iteration            `json:"iterations"`
	Aborted            string                 `json:"aborted,omitempty"`
	TotalTime          int64                  `json:"totalTime"`
	WallTime           int64                  `json:"wallTime"`
	TimeInTestFunction int64                  `json:"timeInTestFunction"`
	NumberOfChecks     int                    `json:"numberOfChecks"`
}

// StepFilter selects the steps that end up in an export.
type StepFilter func(step Step) bool

func OnlySuccessful(step Step) bool {
	return step.Successful()
}

func AllSteps(Step) bool {
	return true
}
