package interpreter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/parser"
	"aurora/interpreter-go/pkg/runtime"
)

// runFixture parses and evaluates one fixture directory and checks the
// outcome against its manifest.
func runFixture(t testingT, dir string) {
	t.Helper()
	manifest := readManifest(t, dir)
	entry := manifest.Entry
	if entry == "" {
		entry = "source.au"
	}
	source := readSource(t, filepath.Join(dir, entry))

	program, diags := parser.ParseSource(source)
	if len(manifest.Expect.Diagnostics) > 0 {
		got := make([]string, 0, len(diags))
		for _, d := range diags {
			got = append(got, d.Message)
		}
		if !reflect.DeepEqual(got, manifest.Expect.Diagnostics) {
			t.Fatalf("fixture %s expected diagnostics %v, got %v", dir, manifest.Expect.Diagnostics, got)
		}
		return
	}
	if len(diags) > 0 {
		t.Fatalf("fixture %s: unexpected diagnostics %v", dir, diags)
	}
	checkProgramJSON(t, dir, program)

	value, err := New().EvaluateProgram(program)
	if err != nil {
		t.Fatalf("fixture %s evaluation error: %v", dir, err)
	}
	errVal, isErr := value.(runtime.ErrorValue)
	if len(manifest.Expect.Errors) > 0 {
		if !isErr {
			t.Fatalf("fixture %s expected error value, got %s", dir, Inspect(value))
		}
		if !contains(manifest.Expect.Errors, errVal.Message) {
			t.Fatalf("fixture %s expected error in %v, got %s", dir, manifest.Expect.Errors, errVal.Message)
		}
		return
	}
	if isErr {
		t.Fatalf("fixture %s unexpected error value: %s", dir, errVal.Message)
	}
	assertResult(t, dir, manifest, value)
}

// checkProgramJSON compares the parsed tree with program.json when present.
func checkProgramJSON(t testingT, dir string, program *ast.Program) {
	t.Helper()
	path := filepath.Join(dir, "program.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	expected, err := ast.DecodeProgram(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if !reflect.DeepEqual(expected, program) {
		t.Fatalf("fixture %s: parsed tree %s does not match program.json %s", dir, program, expected)
	}
}

func assertResult(t testingT, dir string, manifest fixtureManifest, result runtime.Value) {
	t.Helper()
	exp := manifest.Expect.Result
	if exp == nil {
		return
	}
	if result.Kind().String() != exp.Kind {
		t.Fatalf("fixture %s expected kind %s, got %s (%s)", dir, exp.Kind, result.Kind(), Inspect(result))
	}
	if exp.Value == nil {
		return
	}
	switch v := result.(type) {
	case runtime.IntegerValue:
		expected, ok := exp.Value.(float64)
		if !ok || int64(expected) != v.Val {
			t.Fatalf("fixture %s expected value %v, got %d", dir, exp.Value, v.Val)
		}
	case runtime.BoolValue:
		expected, ok := exp.Value.(bool)
		if !ok || expected != v.Val {
			t.Fatalf("fixture %s expected value %v, got %v", dir, exp.Value, v.Val)
		}
	default:
		if got := Inspect(result); got != fmt.Sprint(exp.Value) {
			t.Fatalf("fixture %s expected value %v, got %s", dir, exp.Value, got)
		}
	}
}
