package interpreter

import (
	"strconv"

	"aurora/interpreter-go/pkg/runtime"
)

// Inspect renders a value for display.
func Inspect(val runtime.Value) string {
	switch v := val.(type) {
	case nil:
		return "<nil>"
	case runtime.IntegerValue:
		return strconv.FormatInt(v.Val, 10)
	case runtime.BoolValue:
		return strconv.FormatBool(v.Val)
	case runtime.NullValue:
		return "null"
	case *runtime.FunctionValue:
		if v.Declaration == nil {
			return "fn"
		}
		return v.Declaration.String()
	case runtime.ReturnValue:
		return Inspect(v.Value)
	case runtime.ErrorValue:
		return "ERROR: " + v.Message
	default:
		return "<" + val.Kind().String() + ">"
	}
}
