package interpreter

import (
	"errors"
	"fmt"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/parser"
	"aurora/interpreter-go/pkg/runtime"
)

// DefaultMaxDepth bounds the number of active function calls when
// Options.MaxDepth is unset.
const DefaultMaxDepth = 10000

var (
	// ErrMaxDepth is returned when more function calls are active than the
	// configured limit. It aborts evaluation; it is not an Aurora error value.
	ErrMaxDepth = errors.New("interpreter: maximum call depth exceeded")
	// ErrUnsupportedNode is returned for a nil or foreign AST node.
	ErrUnsupportedNode = errors.New("interpreter: unsupported node")
)

// Options configures an Interpreter.
type Options struct {
	MaxDepth int
}

// Interpreter evaluates Aurora AST nodes. Language-level failures come back as
// runtime.ErrorValue results; the error return is reserved for ErrMaxDepth
// and ErrUnsupportedNode. An Interpreter is not safe for concurrent use.
type Interpreter struct {
	global   *runtime.Environment
	maxDepth int
	depth    int // active function calls
}

// New returns an interpreter with an empty global environment.
func New() *Interpreter {
	return NewWithOptions(Options{})
}

// NewWithOptions returns an interpreter using opts.
func NewWithOptions(opts Options) *Interpreter {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Interpreter{
		global:   runtime.NewEnvironment(),
		maxDepth: maxDepth,
	}
}

// GlobalEnvironment returns the interpreter’s global environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// Evaluate evaluates node in env, or in the global environment when env is nil.
func (i *Interpreter) Evaluate(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	if env == nil {
		env = i.global
	}
	i.depth = 0
	return i.evaluate(node, env)
}

// EvaluateProgram runs program in the global environment.
func (i *Interpreter) EvaluateProgram(program *ast.Program) (runtime.Value, error) {
	return i.Evaluate(program, i.global)
}

// EvaluateSource parses and runs src in the global environment. When the
// parser reports diagnostics nothing is evaluated and the value is nil.
func (i *Interpreter) EvaluateSource(src string) (runtime.Value, []parser.Diagnostic, error) {
	program, diags := parser.ParseSource(src)
	if len(diags) > 0 {
		return nil, diags, nil
	}
	val, err := i.EvaluateProgram(program)
	return val, nil, err
}

func (i *Interpreter) evaluate(node ast.Node, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.Program:
		return i.evaluateProgram(n, env)
	case ast.Statement:
		return i.evaluateStatement(n, env)
	case ast.Expression:
		return i.evaluateExpression(n, env)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedNode, node)
	}
}

// isAbrupt reports whether v must stop the surrounding evaluation and be
// passed upward unchanged.
func isAbrupt(v runtime.Value) bool {
	switch v.(type) {
	case runtime.ErrorValue, runtime.ReturnValue:
		return true
	default:
		return false
	}
}
