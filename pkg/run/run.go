package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rmohr/treereduce/pkg/api"
	"github.com/rmohr/treereduce/pkg/artifacts"
	"github.com/rmohr/treereduce/pkg/grammar"
	"github.com/rmohr/treereduce/pkg/tree"
)

// Oracle decides whether a candidate still shows the property of interest.
type Oracle interface {
	Test(ctx context.Context, text string) (bool, error)
	Cleanup()
}

// Reducer is a reduction strategy. It calls Run.Test for every candidate
// and returns the text of the smallest candidate that passed.
type Reducer interface {
	Name() string
	Reduce(t *tree.Tree, r *Run) (string, error)
}

// NoLimit is the command line value of a disabled limit.
const NoLimit = -1

// Limit returns a pointer to a limit value, negative values disable the
// limit.
func Limit[T int | time.Duration](v T) *T {
	if v < 0 {
		return nil
	}
	return &v
}

type Options struct {
	// Cache enables the verdict cache. A CacheCapacity of zero keeps every
	// verdict, otherwise the least recently used entries are evicted.
	Cache         bool
	CacheCapacity int

	// Limits, nil disables them. A zero limit is a real limit: a check
	// limit of 0 stops before the first check.
	SizeLimit  *int
	CheckLimit *int
	TimeLimit  *time.Duration

	// Lexer enables token counting for successful steps.
	Lexer *grammar.Lexer

	// IterationResults receives the best text after every iteration as
	// numbered copies of IterationFile.
	IterationResults *artifacts.Helper
	IterationFile    string

	Metrics *Metrics
	Logger  logrus.FieldLogger
}

// Run drives a single reduction: it owns the oracle cache, enforces the
// limits and records every check.
type Run struct {
	id      string
	tree    *tree.Tree
	reducer Reducer
	oracle  Oracle
	opts    Options
	cache   cache
	metrics *Metrics
	log     logrus.FieldLogger
	now     func() time.Time
	ctx     context.Context

	created    time.Time
	start      time.Time
	end        time.Time
	pauseStart time.Time

	paused   time.Duration
	inLexer  time.Duration
	inOracle time.Duration

	checks     int
	steps      []api.Step
	iterations []api.Iteration
	lastGood   string
	aborted    string
}

func New(t *tree.Tree, reducer Reducer, oracle Oracle, opts Options) (*Run, error) {
	r := &Run{
		id:      uuid.New().String(),
		tree:    t,
		reducer: reducer,
		oracle:  oracle,
		opts:    opts,
		metrics: opts.Metrics,
		now:     time.Now,
		ctx:     context.Background(),
	}
	if opts.Cache {
		if opts.CacheCapacity < 0 {
			return nil, fmt.Errorf("invalid cache capacity %d", opts.CacheCapacity)
		} else if opts.CacheCapacity == 0 {
			r.cache = mapCache{}
		} else {
			c, err := newLRUCache(opts.CacheCapacity)
			if err != nil {
				return nil, fmt.Errorf("failed to create cache: %v", err)
			}
			r.cache = c
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r.log = logger.WithField("reducer", reducer.Name())
	return r, nil
}

func (r *Run) ID() string {
	return r.id
}

func (r *Run) ReducerName() string {
	return r.reducer.Name()
}

// Context is the context of the running reduction.
func (r *Run) Context() context.Context {
	return r.ctx
}

// Start runs the reducer on the tree. An abort ends the reduction with the
// last successful candidate and is not reported as an error.
func (r *Run) Start(ctx context.Context) (string, error) {
	if !r.start.IsZero() {
		panic("reduction run already started")
	}
	r.ctx = ctx
	r.lastGood = r.tree.Print(r.tree.Root())
	originalSize := len(r.lastGood)

	r.created = r.now()
	r.start = r.created

	tokens := r.countTokens(r.lastGood, api.Successful)
	r.addStep(originalSize, tokens, 0, api.Successful)
	r.metrics.observeSize(originalSize)

	r.logAt(r.timestamp()).Infof("start reduction with '%s' reducer (%d)", r.reducer.Name(), originalSize)

	result, err := r.reducer.Reduce(r.tree, r)
	var abort *AbortError
	if errors.As(err, &abort) {
		result, err = r.lastGood, nil
		r.aborted = abort.Reason
		r.logAt(r.timestamp()).Infof("ABORTED: %s", abort.Reason)
	} else if err != nil {
		result = r.lastGood
	}
	r.stop()
	return result, err
}

// Test asks the oracle, or the cache, whether text still shows the
// property.
func (r *Run) Test(text string) (bool, error) {
	r.assertRunning()

	key := cacheKey(text)
	if r.cache != nil {
		if v, ok := lookup(r.cache, key, text); ok {
			r.metrics.observeCacheHit()
			return v.holds, nil
		}
	}

	if limit := r.opts.CheckLimit; limit != nil && r.checks >= *limit {
		return false, abortf("reached check limit (%d)", *limit)
	}

	begin := r.now()
	holds, err := r.oracle.Test(r.ctx, text)
	if err != nil {
		return false, err
	}
	verificationTime := r.now().Sub(begin)

	if r.cache != nil {
		r.cache.put(key, verdict{text: text, holds: holds})
		if holds {
			purgeLonger(r.cache, len(text))
		}
	}

	if limit := r.opts.TimeLimit; limit != nil && r.elapsed() >= *limit {
		return false, abortf("reached time limit (%d)", limit.Milliseconds())
	}

	r.inOracle += verificationTime
	r.checks++

	result := api.NotSuccessful
	if holds {
		result = api.Successful
	}
	size := len(text)
	tokens := r.countTokens(text, result)
	r.addStep(size, tokens, verificationTime, result)
	r.metrics.observeCheck(result, verificationTime)

	if holds {
		r.lastGood = text
		r.metrics.observeSize(size)
		if limit := r.opts.SizeLimit; limit != nil && size <= *limit {
			return true, abortf("reached size limit (%d)", *limit)
		}
	}
	return holds, nil
}

// Pause stops the clock, e.g. while re-parsing between pipeline stages.
func (r *Run) Pause() {
	r.assertRunning()
	r.pauseStart = r.now()
}

func (r *Run) Resume() {
	if !r.end.IsZero() {
		panic("reduction run already stopped")
	}
	if r.pauseStart.IsZero() {
		panic("reduction run not paused")
	}
	r.paused += r.now().Sub(r.pauseStart)
	r.pauseStart = time.Time{}
}

// FinishIteration records a checkpoint and writes the best text so far when
// iteration results are requested.
func (r *Run) FinishIteration() error {
	r.assertStarted()

	timestamp := r.timestamp()
	iteration := api.Iteration{
		Checks:             r.checks,
		Timestamp:          timestamp,
		TimeInTestFunction: r.inOracle.Milliseconds(),
	}
	previous := api.Iteration{}
	if len(r.iterations) > 0 {
		previous = r.iterations[len(r.iterations)-1]
	}
	r.iterations = append(r.iterations, iteration)

	r.logAt(timestamp).Infof("iteration finished (%5d checks, %6d ms, %6d ms in test function)",
		iteration.Checks-previous.Checks,
		iteration.Timestamp-previous.Timestamp,
		iteration.TimeInTestFunction-previous.TimeInTestFunction)

	if r.opts.IterationResults != nil {
		name, err := r.opts.IterationResults.WriteNumbered(r.opts.IterationFile, len(r.iterations), r.lastGood)
		if err != nil {
			return err
		}
		r.log.Debugf("wrote iteration result to %s", name)
	}
	return nil
}

func (r *Run) stop() {
	if !r.pauseStart.IsZero() {
		r.Resume()
	}
	r.end = r.now()
	r.oracle.Cleanup()

	duration := r.Duration().Milliseconds()
	log := r.logAt(duration)
	log.Info("reduction finished:")

	originalSize := r.OriginalSize()
	reducedSize := r.ReducedSize()
	log.Infof("~~ %d => %d characters (%.2f %%)", originalSize, reducedSize,
		percent(originalSize-reducedSize, originalSize))

	checks := r.NumberOfChecks()
	reductions := r.NumberOfReductions()
	log.Infof("~~ %d checks, %d successful reductions (%.2f %%)", checks, reductions,
		percent(reductions, checks))

	inOracle := r.inOracle.Milliseconds()
	log.Infof("~~ %d ms (%.2f %%) in test function", inOracle, percent(int(inOracle), int(duration)))
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func (r *Run) countTokens(text string, result api.Result) int {
	if r.opts.Lexer == nil || result != api.Successful {
		return -1
	}
	begin := r.now()
	defer func() {
		r.inLexer += r.now().Sub(begin)
	}()
	n, err := r.opts.Lexer.Count(text)
	if err != nil {
		return -1
	}
	return n
}

func (r *Run) addStep(size, tokens int, verificationTime time.Duration, result api.Result) {
	timestamp := r.timestamp()
	step := api.Step{
		Index:            len(r.steps),
		Timestamp:        timestamp,
		VerificationTime: verificationTime.Milliseconds(),
		Size:             size,
		Tokens:           tokens,
		Result:           result,
	}
	r.steps = append(r.steps, step)

	log := r.logAt(timestamp).WithField("check", r.checks)
	if step.Index > 0 && result == api.Successful {
		if tokens > -1 {
			log.Debugf("successful reduction (%8d bytes, %8d tokens)", size, tokens)
		} else {
			log.Debugf("successful reduction (%8d bytes)", size)
		}
	}
	if result == api.NotSuccessful {
		log.Trace("unsuccessful reduction")
	}
}

func (r *Run) logAt(timestamp int64) logrus.FieldLogger {
	return r.log.WithField("t", fmt.Sprintf("%d.%03d", timestamp/1000, timestamp%1000))
}

// elapsed is the time since the start without pauses and lexing.
func (r *Run) elapsed() time.Duration {
	return r.now().Sub(r.start) - r.inLexer - r.paused
}

func (r *Run) timestamp() int64 {
	return r.elapsed().Milliseconds()
}

func (r *Run) assertStarted() {
	if r.start.IsZero() {
		panic("reduction run not started")
	}
}

func (r *Run) assertRunning() {
	r.assertStarted()
	if !r.end.IsZero() {
		panic("reduction run already stopped")
	}
	if !r.pauseStart.IsZero() {
		panic("reduction run paused")
	}
}

func (r *Run) assertStopped() {
	r.assertStarted()
	if r.end.IsZero() {
		panic("reduction run not stopped yet")
	}
}

// Best returns the smallest candidate that passed so far.
func (r *Run) Best() string {
	return r.lastGood
}

func (r *Run) OriginalSize() int {
	r.assertStarted()
	return r.steps[0].Size
}

// ReducedSize is the size of the last successful step.
func (r *Run) ReducedSize() int {
	r.assertStopped()
	for i := len(r.steps) - 1; i >= 0; i-- {
		if r.steps[i].Successful() {
			return r.steps[i].Size
		}
	}
	return r.OriginalSize()
}

// Duration excludes paused time and time spent counting tokens.
func (r *Run) Duration() time.Duration {
	r.assertStopped()
	return r.end.Sub(r.start) - r.inLexer - r.paused
}

func (r *Run) WallTime() time.Duration {
	r.assertStopped()
	return r.end.Sub(r.start)
}

func (r *Run) NumberOfChecks() int {
	return r.checks
}

// NumberOfReductions counts the successful steps after the original input.
func (r *Run) NumberOfReductions() int {
	r.assertStarted()
	n := 0
	for _, step := range r.steps[1:] {
		if step.Successful() {
			n++
		}
	}
	return n
}

func (r *Run) TimeInTestFunction() time.Duration {
	return r.inOracle
}

func (r *Run) Steps() []api.Step {
	return append([]api.Step(nil), r.steps...)
}

func (r *Run) Iterations() []api.Iteration {
	return append([]api.Iteration(nil), r.iterations...)
}

// AbortReason is empty unless a limit ended the run.
func (r *Run) AbortReason() string {
	return r.aborted
}
