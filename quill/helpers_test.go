package quill

import (
	"context"
	"io"
	"strings"
	"testing"
)

func at(line int) Position { return Position{Line: line, Column: 1} }

func intLit(n int64) Expression     { return &ConstantExpr{Value: NewInt(n)} }
func floatLit(f float64) Expression { return &ConstantExpr{Value: NewFloat(f)} }
func strLit(s string) Expression    { return &ConstantExpr{Value: NewString(s)} }
func boolLit(b bool) Expression     { return &ConstantExpr{Value: NewBool(b)} }
func nullLit() Expression           { return &ConstantExpr{Value: NewNull()} }
func local(name string) Expression  { return &VariableExpr{Name: name} }
func param(name string) Expression  { return &ArgumentExpr{Name: name} }
func self() Expression              { return &VariableExpr{Name: thisBinding} }

func binary(op Operator, left, right Expression) Expression {
	return &BinaryExpr{Op: op, Left: left, Right: right}
}

func ret(line int, value Expression) Statement {
	return &ReturnStmt{Value: value, Loc: at(line)}
}

func assign(line int, name string, value Expression) Statement {
	return &AssignVariableStmt{Name: name, Value: value, Loc: at(line)}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	if err := RegisterStandardLibrary(reg, io.Discard); err != nil {
		t.Fatalf("stdlib: %v", err)
	}
	return reg
}

// define links every method to its class before registering it.
func define(t *testing.T, reg *Registry, class *Class) *Class {
	t.Helper()
	for _, m := range class.Methods {
		m.Class = class
	}
	if err := reg.Define(class); err != nil {
		t.Fatalf("define %s: %v", class.Name, err)
	}
	return class
}

func lookupClass(t *testing.T, reg *Registry, name string) *Class {
	t.Helper()
	class, ok := reg.SearchClass(name)
	if !ok {
		t.Fatalf("class %s not registered", name)
	}
	return class
}

func run(t *testing.T, reg *Registry, className, methodName string, args ...Value) (Value, error) {
	t.Helper()
	engine := MustNewEngine(Config{})
	return engine.Invoke(context.Background(), reg, className, methodName, args)
}

func mustRun(t *testing.T, reg *Registry, className, methodName string, args ...Value) Value {
	t.Helper()
	val, err := run(t, reg, className, methodName, args...)
	if err != nil {
		t.Fatalf("%s.%s: %v", className, methodName, err)
	}
	return val
}

// evalExpr returns expr from a static scratch method.
func evalExpr(t *testing.T, expr Expression) (Value, error) {
	t.Helper()
	reg := newTestRegistry(t)
	define(t, reg, &Class{
		Name: "Scratch",
		Methods: []*Method{{
			Name:   "eval",
			Static: true,
			Body:   []Statement{ret(1, expr)},
		}},
	})
	return run(t, reg, "Scratch", "eval")
}

func mustEval(t *testing.T, expr Expression) Value {
	t.Helper()
	val, err := evalExpr(t, expr)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return val
}

func expectFault(t *testing.T, err error, want string) *Fault {
	t.Helper()
	if err == nil {
		t.Fatalf("expected fault containing %q", want)
	}
	fault, ok := AsFault(err)
	if !ok {
		t.Fatalf("expected *Fault, got %T: %v", err, err)
	}
	if !strings.Contains(fault.Message, want) {
		t.Fatalf("fault message %q does not contain %q", fault.Message, want)
	}
	return fault
}

func expectValue(t *testing.T, got, want Value) {
	t.Helper()
	if got.Kind() != want.Kind() || !got.Equal(want) {
		t.Fatalf("got %s %v want %s %v", got.Kind(), got, want.Kind(), want)
	}
}

func staticMethod(name string, returns *Type, body ...Statement) *Method {
	return &Method{Name: name, Static: true, Returns: returns, Body: body}
}

// program registers a class holding the given static methods.
func program(t *testing.T, methods ...*Method) *Registry {
	t.Helper()
	reg := newTestRegistry(t)
	define(t, reg, &Class{Name: "Main", Methods: methods})
	return reg
}
