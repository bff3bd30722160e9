package runtime

import (
	"fmt"

	"aurora/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInteger Kind = iota
	KindBoolean
	KindNull
	KindFunction
	KindReturnValue
	KindError
)

// String is the type name used in evaluation error messages.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindBoolean:
		return "BOOLEAN"
	case KindNull:
		return "NULL"
	case KindFunction:
		return "FUNCTION"
	case KindReturnValue:
		return "RETURN_VALUE"
	case KindError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN_KIND_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBoolean }

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

// Shared singletons. Comparing against these is the same as comparing by value.
var (
	True  Value = BoolValue{Val: true}
	False Value = BoolValue{Val: false}
	Null  Value = NullValue{}
)

// Bool returns the canonical boolean value for b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// FunctionValue is a function literal paired with the scope it was evaluated
// in. Calls run in a child of Closure, never of the caller's scope.
type FunctionValue struct {
	Declaration *ast.FunctionLiteral
	Closure     *Environment
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

//-----------------------------------------------------------------------------
// Control flow
//-----------------------------------------------------------------------------

// ReturnValue carries a returned value up to the nearest call or program
// boundary. It never escapes a call.
type ReturnValue struct {
	Value Value
}

func (v ReturnValue) Kind() Kind { return KindReturnValue }

// ErrorValue is a language-level failure. It travels through evaluation like
// any other value and stops the enclosing statement sequence.
type ErrorValue struct {
	Message string
}

func (v ErrorValue) Kind() Kind { return KindError }

func (v ErrorValue) Error() string { return v.Message }

// NewError formats an ErrorValue.
func NewError(format string, args ...any) ErrorValue {
	return ErrorValue{Message: fmt.Sprintf(format, args...)}
}

// IsError reports whether v is an ErrorValue.
func IsError(v Value) bool {
	_, ok := v.(ErrorValue)
	return ok
}
