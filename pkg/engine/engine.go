// Package engine evaluates model scripts. It wraps zygomys in a sandboxed
// environment whose builtins build a Model: box rooms, apertures, shades,
// transforms and adjacency solving.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/hbcore/internal/config"
	"github.com/chazu/hbcore/internal/logging"
	"github.com/chazu/hbcore/pkg/model"
)

var logger = logging.New("engine")

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
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

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment and a fresh
// Model.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout   time.Duration
	modelID   string
	modelCfg  *config.ModelConfig
	adjacency model.AdjacencyOptions
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithModelID sets the identifier of the models Evaluate returns.
func WithModelID(id string) Option {
	return func(e *Engine) { e.modelID = id }
}

// WithConfig applies the engine timeout, the model defaults and the
// adjacency options of a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg.Engine.Timeout > 0 {
			e.timeout = cfg.Engine.Timeout
		}
		mc := cfg.Model
		e.modelCfg = &mc
		if tb, err := model.ParseTieBreak(cfg.Adjacency.TieBreak); err == nil {
			e.adjacency.TieBreak = tb
		}
		e.adjacency.ResetUnmatched = cfg.Adjacency.ResetUnmatched
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout, modelID: "Model"}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs a script and returns the Model it builds.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*model.Model, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is like Evaluate but also gives up when ctx is done.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*model.Model, []EvalError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("evaluation canceled: %w", err)
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	logger.Debug("evaluating script", "generation", gen, "bytes", len(source))
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		m, evalErrs, err := e.evaluate(source)
		ch <- evalResult{model: m, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ctx, ch, e.timeout, gen, &e.mu, &e.generation)
}

// newModel returns the empty model a script starts from.
func (e *Engine) newModel() (*model.Model, error) {
	m, err := model.NewModel(e.modelID)
	if err != nil {
		return nil, err
	}
	if mc := e.modelCfg; mc != nil {
		if mc.Units != "" {
			u, err := model.ParseUnits(mc.Units)
			if err != nil {
				return nil, err
			}
			m.Units = u
		}
		if mc.Tolerance > 0 {
			m.Tolerance = mc.Tolerance
		}
		if mc.AngleTolerance > 0 {
			m.AngleTolerance = mc.AngleTolerance
		}
	}
	return m, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*model.Model, []EvalError, error) {
	m, err := e.newModel()
	if err != nil {
		return nil, nil, err
	}

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return m, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, &session{model: m, adjacency: e.adjacency})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return m, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
