package interpreter

import (
	"fmt"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return runtime.IntegerValue{Val: n.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.Bool(n.Value), nil
	case *ast.Identifier:
		if val, ok := env.Get(n.Name); ok {
			return val, nil
		}
		return runtime.NewError("identifier not found: %s", n.Name), nil
	case *ast.PrefixExpression:
		return i.evaluatePrefixExpression(n, env)
	case *ast.InfixExpression:
		return i.evaluateInfixExpression(n, env)
	case *ast.IfExpression:
		return i.evaluateIfExpression(n, env)
	case *ast.FunctionLiteral:
		return &runtime.FunctionValue{Declaration: n, Closure: env}, nil
	case *ast.CallExpression:
		return i.evaluateCallExpression(n, env)
	default:
		return nil, fmt.Errorf("%w: expression %T", ErrUnsupportedNode, node)
	}
}

func (i *Interpreter) evaluatePrefixExpression(expr *ast.PrefixExpression, env *runtime.Environment) (runtime.Value, error) {
	right, err := i.evaluate(expr.Right, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(right) {
		return right, nil
	}

	switch expr.Operator {
	case "!":
		return runtime.Bool(!isTruthy(right)), nil
	case "-":
		if v, ok := right.(runtime.IntegerValue); ok {
			return runtime.IntegerValue{Val: -v.Val}, nil
		}
	}
	return runtime.NewError("unknown operator: %s%s", expr.Operator, right.Kind()), nil
}

func (i *Interpreter) evaluateInfixExpression(expr *ast.InfixExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluate(expr.Left, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(left) {
		return left, nil
	}
	right, err := i.evaluate(expr.Right, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(right) {
		return right, nil
	}

	if l, ok := left.(runtime.IntegerValue); ok {
		if r, ok := right.(runtime.IntegerValue); ok {
			return integerInfix(expr.Operator, l.Val, r.Val), nil
		}
	}
	if left.Kind() != right.Kind() {
		return runtime.NewError("type mismatch: %s%s%s", left.Kind(), expr.Operator, right.Kind()), nil
	}
	switch expr.Operator {
	case "==":
		return runtime.Bool(sameValue(left, right)), nil
	case "!=":
		return runtime.Bool(!sameValue(left, right)), nil
	}
	return runtime.NewError("unknown operator: %s%s%s", left.Kind(), expr.Operator, right.Kind()), nil
}

// integerInfix applies op with Go int64 semantics: wrapping arithmetic and
// division truncated toward zero.
func integerInfix(op string, a, b int64) runtime.Value {
	switch op {
	case "+":
		return runtime.IntegerValue{Val: a + b}
	case "-":
		return runtime.IntegerValue{Val: a - b}
	case "*":
		return runtime.IntegerValue{Val: a * b}
	case "/":
		if b == 0 {
			return runtime.NewError("division by zero: %d / 0", a)
		}
		return runtime.IntegerValue{Val: a / b}
	case "<":
		return runtime.Bool(a < b)
	case ">":
		return runtime.Bool(a > b)
	case "==":
		return runtime.Bool(a == b)
	case "!=":
		return runtime.Bool(a != b)
	default:
		return runtime.NewError("unknown operator: %s%s%s", runtime.KindInteger, op, runtime.KindInteger)
	}
}

// sameValue compares two values of the same kind. Functions compare by
// identity.
func sameValue(left, right runtime.Value) bool {
	switch l := left.(type) {
	case runtime.BoolValue:
		return l.Val == right.(runtime.BoolValue).Val
	case runtime.NullValue:
		return true
	case *runtime.FunctionValue:
		return l == right.(*runtime.FunctionValue)
	default:
		return false
	}
}

func (i *Interpreter) evaluateIfExpression(expr *ast.IfExpression, env *runtime.Environment) (runtime.Value, error) {
	cond, err := i.evaluate(expr.Condition, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(cond) {
		return cond, nil
	}
	if isTruthy(cond) {
		return i.evaluate(expr.Consequence, env)
	}
	if expr.Alternative != nil {
		return i.evaluate(expr.Alternative, env)
	}
	return runtime.Null, nil
}

// isTruthy treats false and null as false and everything else, zero
// included, as true.
func isTruthy(val runtime.Value) bool {
	switch v := val.(type) {
	case runtime.BoolValue:
		return v.Val
	case runtime.NullValue:
		return false
	default:
		return true
	}
}

func (i *Interpreter) evaluateCallExpression(call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.evaluate(call.Function, env)
	if err != nil {
		return nil, err
	}
	if isAbrupt(callee) {
		return callee, nil
	}

	args := make([]runtime.Value, 0, len(call.Arguments))
	for _, argExpr := range call.Arguments {
		arg, err := i.evaluate(argExpr, env)
		if err != nil {
			return nil, err
		}
		if isAbrupt(arg) {
			return arg, nil
		}
		args = append(args, arg)
	}

	fn, ok := callee.(*runtime.FunctionValue)
	if !ok {
		return runtime.NewError("not a function: %s", callee.Kind()), nil
	}
	return i.invokeFunction(fn, args)
}

// invokeFunction runs fn's body in a fresh scope whose parent is the scope
// fn was defined in, then unwraps any return value.
func (i *Interpreter) invokeFunction(fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	decl := fn.Declaration
	if decl == nil || decl.Body == nil {
		return nil, fmt.Errorf("%w: function without a body", ErrUnsupportedNode)
	}
	if len(args) != len(decl.Parameters) {
		return runtime.NewError("wrong number of arguments: want=%d, got=%d", len(decl.Parameters), len(args)), nil
	}

	i.depth++
	defer func() { i.depth-- }()
	if i.depth > i.maxDepth {
		return nil, fmt.Errorf("%w (limit %d)", ErrMaxDepth, i.maxDepth)
	}

	localEnv := fn.Closure.Extend()
	for idx, param := range decl.Parameters {
		localEnv.Set(param.Name, args[idx])
	}

	result, err := i.evaluate(decl.Body, localEnv)
	if err != nil {
		return nil, err
	}
	if ret, ok := result.(runtime.ReturnValue); ok {
		return ret.Value, nil
	}
	return result, nil
}
