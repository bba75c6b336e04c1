package run

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

type Verbosity int

const (
	Quiet Verbosity = iota
	Minimal
	More
	All
)

var verbosityNames = []string{"QUIET", "MINIMAL", "MORE", "ALL"}

const DefaultVerbosity = More

func (v Verbosity) String() string {
	if v < Quiet || v > All {
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
	return verbosityNames[v]
}

// Level maps the verbosity onto the logrus level that shows exactly the
// messages of that verbosity: start and stop at Info, successful checks at
// Debug and unsuccessful checks at Trace.
func (v Verbosity) Level() logrus.Level {
	switch v {
	case Quiet:
		return logrus.WarnLevel
	case Minimal:
		return logrus.InfoLevel
	case More:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

func ParseVerbosity(name string) (Verbosity, error) {
	for i, n := range verbosityNames {
		if strings.EqualFold(n, name) {
			return Verbosity(i), nil
		}
	}
	return Quiet, fmt.Errorf("unknown verbosity '%s', expected one of %s", name, VerbosityOptions())
}

func VerbosityOptions() string {
	return strings.Join(verbosityNames, " | ")
}
