package interpreter

import (
	"fmt"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateStatement(node ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.ExpressionStatement:
		return i.evaluate(n.Expression, env)
	case *ast.LetStatement:
		return i.evaluateLetStatement(n, env)
	case *ast.ReturnStatement:
		return i.evaluateReturnStatement(n, env)
	case *ast.BlockStatement:
		return i.evaluateBlock(n, env)
	default:
		return nil, fmt.Errorf("%w: statement %T", ErrUnsupportedNode, node)
	}
}

// evaluateProgram runs every statement in env. A return at the top level ends
// the program with the returned value; an error value ends it with the error.
func (i *Interpreter) evaluateProgram(program *ast.Program, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.Null
	for _, stmt := range program.Statements {
		val, err := i.evaluate(stmt, env)
		if err != nil {
			return nil, err
		}
		switch v := val.(type) {
		case runtime.ReturnValue:
			return v.Value, nil
		case runtime.ErrorValue:
			return v, nil
		}
		result = val
	}
	return result, nil
}

// evaluateBlock runs the statements in env itself; blocks do not open a scope.
// A return value is handed up still wrapped so the enclosing call can unwrap it.
func (i *Interpreter) evaluateBlock(block *ast.BlockStatement, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.Null
	for _, stmt := range block.Statements {
		val, err := i.evaluate(stmt, env)
		if err != nil {
			return nil, err
		}
		if isAbrupt(val) {
			return val, nil
		}
		result = val
	}
	return result, nil
}

func (i *Interpreter) evaluateLetStatement(stmt *ast.LetStatement, env *runtime.Environment) (runtime.Value, error) {
	if stmt.Name == nil {
		return nil, fmt.Errorf("%w: let statement without a name", ErrUnsupportedNode)
	}
	val, err := i.evaluate(stmt.Value, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(val) {
		return val, nil
	}
	return env.Set(stmt.Name.Name, val), nil
}

func (i *Interpreter) evaluateReturnStatement(stmt *ast.ReturnStatement, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluate(stmt.Value, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(val) {
		return val, nil
	}
	return runtime.ReturnValue{Value: val}, nil
}
