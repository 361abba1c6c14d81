// Package engine evaluates caliper fixture scripts. A script is Lisp run
// in a zygomys sandbox; its builtins build solids on a geometry kernel,
// name them as parts, and ask the measure package questions about them.
// Each evaluation produces a new scene.Scene.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/measure"
	"github.com/chazu/caliper/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// DefaultSegments is the facet count used for curved primitives when a
// script does not pass :segments.
const DefaultSegments = 64

// DefaultAlignTolerance is the tolerance aligned uses when a script does
// not pass :tol.
const DefaultAlignTolerance = 0.01

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a failed
// measurement.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for fixture evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel   kernel.Kernel
	service  *measure.Service
	timeout  time.Duration
	segments int
	alignTol float64
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithService sets the measurement service scripts query.
func WithService(s *measure.Service) Option {
	return func(e *Engine) { e.service = s }
}

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithSegments sets the default facet count for cylinders and spheres.
func WithSegments(n int) Option {
	return func(e *Engine) { e.segments = n }
}

// WithAlignTolerance sets the tolerance aligned uses without :tol.
func WithAlignTolerance(tol float64) Option {
	return func(e *Engine) { e.alignTol = tol }
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine that builds solids on k.
func NewEngine(k kernel.Kernel, opts ...Option) *Engine {
	e := &Engine{
		kernel:   k,
		service:  measure.New(),
		timeout:  EvalTimeout,
		segments: DefaultSegments,
		alignTol: DefaultAlignTolerance,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timeout <= 0 {
		e.timeout = EvalTimeout
	}
	if e.segments <= 0 {
		e.segments = DefaultSegments
	}
	if !(e.alignTol >= 0) {
		e.alignTol = DefaultAlignTolerance
	}
	return e
}

// Evaluate runs a fixture script and returns the scene it defined.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source, gen)
		ch <- evalResult{scene: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, e.timeout, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, gen uint64) (*scene.Scene, []EvalError, error) {
	sc := scene.New()
	sc.Generation = gen

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return sc, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := &builtins{
		kernel:   e.kernel,
		service:  e.service,
		scene:    sc,
		segments: e.segments,
		alignTol: e.alignTol,
	}
	b.register(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		evalErrs := parseZygomysError(err)
		e.logger.Debug("evaluation failed",
			zap.Uint64("generation", gen),
			zap.String("error", evalErrs[0].Message),
		)
		return nil, evalErrs, nil
	}

	e.logger.Debug("evaluation complete",
		zap.Uint64("generation", gen),
		zap.Int("parts", sc.Len()),
		zap.Int("checks", b.checks),
	)
	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
