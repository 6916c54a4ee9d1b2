package quill

import (
	"context"
	"errors"
	"testing"
)

func instanceMethod(name string, returns *Type, body ...Statement) *Method {
	return &Method{Name: name, Returns: returns, Body: body}
}

func call(class, method string, args ...Expression) Expression {
	return &CallExpr{Class: class, Method: method, Args: args}
}

func callOn(receiver Expression, method string, args ...Expression) Expression {
	return &CallExpr{Receiver: receiver, Method: method, Args: args}
}

func prop(target Expression, name string) Expression {
	return &PropertyExpr{Target: target, Name: name}
}

func animalRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := newTestRegistry(t)
	animal := define(t, reg, &Class{
		Name: "Animal",
		Methods: []*Method{
			instanceMethod("speak", TypeString, ret(1, strLit("..."))),
			instanceMethod("describe", TypeString, ret(2, binary(OpConcat, strLit("I say "), call("", "speak")))),
			instanceMethod("superBinding", nil, ret(3, local(superBinding))),
		},
	})
	define(t, reg, &Class{
		Name:   "Dog",
		Parent: animal,
		Methods: []*Method{
			instanceMethod("speak", TypeString, ret(10, strLit("woof"))),
			instanceMethod("parentSpeak", TypeString, ret(11, &CallExpr{Super: true, Method: "speak"})),
			instanceMethod("superIsThis", TypeBoolean, ret(12, binary(OpEq, local(superBinding), self()))),
		},
	})
	return reg
}

func TestVirtualDispatch(t *testing.T) {
	reg := animalRegistry(t)
	expectValue(t, mustRun(t, reg, "Animal", "describe"), NewString("I say ..."))
	expectValue(t, mustRun(t, reg, "Dog", "describe"), NewString("I say woof"))
}

func TestSuperCallAndBinding(t *testing.T) {
	reg := animalRegistry(t)
	expectValue(t, mustRun(t, reg, "Dog", "parentSpeak"), NewString("..."))
	expectValue(t, mustRun(t, reg, "Dog", "superIsThis"), NewBool(true))

	_, err := run(t, reg, "Animal", "superBinding")
	if !IsInternal(err) {
		t.Fatalf("super should be unbound without a parent, got %v", err)
	}
}

func TestConstructorChaining(t *testing.T) {
	reg := newTestRegistry(t)
	appendLog := func(line int, suffix Expression) Statement {
		return &AssignPropertyStmt{Target: self(), Name: "log", Value: binary(OpConcat, prop(self(), "log"), suffix), Loc: at(line)}
	}
	base := define(t, reg, &Class{
		Name:       "Base",
		Properties: []*Property{{Name: "log", Type: TypeString}},
		Methods: []*Method{
			{Name: "constructor", Constructor: true, Body: []Statement{appendLog(1, strLit("base;"))}},
		},
	})
	define(t, reg, &Class{
		Name:   "Derived",
		Parent: base,
		Methods: []*Method{
			{
				Name:        "constructor",
				Constructor: true,
				Args:        []Param{{Name: "x", Type: TypeInteger}},
				Body:        []Statement{appendLog(10, binary(OpConcat, strLit("derived"), param("x")))},
			},
			staticMethod("make", TypeString, ret(11, prop(&NewObjectExpr{Class: "Derived", Args: []Expression{intLit(1)}}, "log"))),
		},
	})
	define(t, reg, &Class{
		Name:   "Plain",
		Parent: base,
		Methods: []*Method{
			staticMethod("make", TypeString, ret(20, prop(&NewObjectExpr{Class: "Plain"}, "log"))),
			staticMethod("badArgs", nil, ret(21, &NewObjectExpr{Class: "Plain", Args: []Expression{intLit(1)}})),
			staticMethod("unknown", nil, ret(22, &NewObjectExpr{Class: "Nowhere"})),
		},
	})

	expectValue(t, mustRun(t, reg, "Derived", "make"), NewString("base;derived1"))
	expectValue(t, mustRun(t, reg, "Plain", "make"), NewString("base;"))

	_, err := run(t, reg, "Plain", "badArgs")
	expectFault(t, err, "constructor")
	_, err = run(t, reg, "Plain", "unknown")
	expectFault(t, err, "type not defined")
}

func nestedRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := newTestRegistry(t)
	define(t, reg, &Class{
		Name:       "Outer",
		Properties: []*Property{{Name: "name", Type: TypeString}},
		Methods: []*Method{
			{Name: "constructor", Constructor: true, Body: []Statement{
				&AssignPropertyStmt{Target: self(), Name: "name", Value: strLit("outer"), Loc: at(1)},
			}},
			instanceMethod("greet", TypeString, ret(2, binary(OpConcat, strLit("hello from "), prop(self(), "name")))),
			instanceMethod("makeInner", &Type{Name: "Outer.Inner"}, ret(3, &NewObjectExpr{Class: "Outer.Inner"})),
			staticMethod("greetViaInner", TypeString,
				&VarStmt{Name: "o", Type: &Type{Name: "Outer"}, Value: &NewObjectExpr{Class: "Outer"}, Loc: at(4)},
				&VarStmt{Name: "i", Type: &Type{Name: "Outer.Inner"}, Value: callOn(local("o"), "makeInner"), Loc: at(5)},
				&CallStmt{Call: callOn(local("i"), "rename"), Loc: at(6)},
				ret(7, callOn(local("i"), "call")),
			),
			staticMethod("assignViaInner", nil,
				&VarStmt{Name: "o", Type: &Type{Name: "Outer"}, Value: &NewObjectExpr{Class: "Outer"}, Loc: at(10)},
				&VarStmt{Name: "i", Type: &Type{Name: "Outer.Inner"}, Value: callOn(local("o"), "makeInner"), Loc: at(11)},
				&CallStmt{Call: callOn(local("i"), "assignUnknown"), Loc: at(12)},
			),
			staticMethod("readViaInner", TypeString,
				&VarStmt{Name: "o", Type: &Type{Name: "Outer"}, Value: &NewObjectExpr{Class: "Outer"}, Loc: at(13)},
				&VarStmt{Name: "i", Type: &Type{Name: "Outer.Inner"}, Value: callOn(local("o"), "makeInner"), Loc: at(14)},
				ret(15, callOn(local("i"), "readName")),
			),
			staticMethod("orphan", TypeString,
				&VarStmt{Name: "i", Type: &Type{Name: "Outer.Inner"}, Value: &NewObjectExpr{Class: "Outer.Inner"}, Loc: at(8)},
				ret(9, callOn(local("i"), "call")),
			),
		},
	})
	define(t, reg, &Class{
		Name: "Outer.Inner",
		Methods: []*Method{
			instanceMethod("call", TypeString, ret(20, call("Outer", "greet"))),
			instanceMethod("rename", nil, &AssignPropertyStmt{Target: self(), Name: "name", Value: strLit("inner"), Loc: at(21)}),
			instanceMethod("assignUnknown", nil, &AssignPropertyStmt{Target: self(), Name: "nickname", Value: strLit("x"), Loc: at(22)}),
			instanceMethod("readName", TypeString, ret(23, prop(self(), "name"))),
		},
	})
	return reg
}

func TestNestedReceiverAdjustment(t *testing.T) {
	reg := nestedRegistry(t)
	expectValue(t, mustRun(t, reg, "Outer", "greetViaInner"), NewString("hello from inner"))
}

func TestNestedPropertyAccess(t *testing.T) {
	reg := nestedRegistry(t)

	// Assignment walks the owner chain but still needs a declared name.
	_, err := run(t, reg, "Outer", "assignViaInner")
	fault := expectFault(t, err, "property not found: Outer.Inner.nickname")
	if fault.Code != CodePropertyNotFound.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodePropertyNotFound.Code)
	}

	// Reads only see the instance's own class.
	_, err = run(t, reg, "Outer", "readViaInner")
	fault = expectFault(t, err, "property not found: Outer.Inner.name")
	if fault.Code != CodePropertyNotFound.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodePropertyNotFound.Code)
	}
}

func TestNestedReceiverWithoutOwnerIsInternal(t *testing.T) {
	reg := nestedRegistry(t)
	_, err := run(t, reg, "Outer", "orphan")
	if !IsInternal(err) {
		t.Fatalf("expected internal fault, got %v", err)
	}
}

func TestArityMismatchIsInternal(t *testing.T) {
	reg := program(t, &Method{Name: "one", Static: true, Args: []Param{{Name: "a", Type: TypeInteger}}})
	method := lookupClass(t, reg, "Main").OwnMethod("one", -1)
	_, _, err := MustNewEngine(Config{}).Execute(context.Background(), method, reg, NewNull(), nil)
	if !IsInternal(err) {
		t.Fatalf("expected internal fault, got %v", err)
	}
}

func TestRecursionLimit(t *testing.T) {
	reg := program(t, &Method{
		Name:   "down",
		Static: true,
		Args:   []Param{{Name: "n", Type: TypeInteger}},
		Body:   []Statement{ret(1, call("", "down", binary(OpAdd, param("n"), intLit(1))))},
	})
	engine := MustNewEngine(Config{RecursionLimit: 10})
	_, err := engine.Invoke(context.Background(), reg, "Main", "down", []Value{NewInt(0)})
	fault := expectFault(t, err, "maximum recursion depth exceeded")
	if fault.Code != CodeRecursionLimit.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodeRecursionLimit.Code)
	}
}

func TestStaticProperties(t *testing.T) {
	reg := newTestRegistry(t)
	seed := NewInt(10)
	define(t, reg, &Class{
		Name:       "Counter",
		Properties: []*Property{{Name: "count", Type: TypeInteger, Static: true, Initial: &seed}},
		Methods: []*Method{
			staticMethod("bump", TypeInteger,
				&AssignStaticStmt{Class: "Counter", Name: "count", Value: binary(OpAdd, &StaticPropertyExpr{Class: "Counter", Name: "count"}, intLit(1)), Loc: at(1)},
				ret(2, &StaticPropertyExpr{Class: "Counter", Name: "count"}),
			),
			staticMethod("missing", nil, ret(3, &StaticPropertyExpr{Class: "Counter", Name: "nope"})),
		},
	})
	mustRun(t, reg, "Counter", "bump")
	expectValue(t, mustRun(t, reg, "Counter", "bump"), NewInt(12))

	_, err := run(t, reg, "Counter", "missing")
	expectFault(t, err, "property not found")
}

func nativeRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := newTestRegistry(t)
	extern := func(name string, static bool, returns *Type, args ...Param) *Method {
		return &Method{Name: name, Static: static, Extern: true, Returns: returns, Args: args}
	}
	define(t, reg, &Class{
		Name: "Native",
		Methods: []*Method{
			extern("add", true, TypeInteger, Param{Name: "a", Type: TypeInteger}, Param{Name: "b", Type: TypeInteger}),
			extern("describe", false, TypeString),
			extern("boom", true, nil),
			extern("fails", true, nil),
			extern("coded", true, nil),
			extern("missing", true, nil),
			staticMethod("safe", TypeString,
				&TryStmt{
					Loc:      at(1),
					Body:     []Statement{&CallStmt{Call: call("Native", "fails"), Loc: at(2)}},
					CatchVar: "e",
					Catch:    []Statement{ret(3, prop(local("e"), "message"))},
				},
				ret(4, strLit("not caught")),
			),
		},
	})
	reg.RegisterExtern("Native", "add", func(args []Value) (Value, error) {
		return NewInt(args[0].Int() + args[1].Int()), nil
	})
	reg.RegisterExtern("Native", "describe", func(args []Value) (Value, error) {
		obj, _ := args[0].Object()
		return NewString(obj.Class.Name), nil
	})
	reg.RegisterExtern("Native", "boom", func([]Value) (Value, error) {
		panic("kaboom")
	})
	reg.RegisterExtern("Native", "fails", func([]Value) (Value, error) {
		return NewNull(), errors.New("disk full")
	})
	reg.RegisterExtern("Native", "coded", func([]Value) (Value, error) {
		return NewNull(), &Fault{Kind: FaultUser, Message: "bad input", Code: 77, HasCode: true}
	})
	return reg
}

func TestExternFaultPropsAreCopied(t *testing.T) {
	reg := nativeRegistry(t)
	shared := map[string]Value{"field": NewString("before")}
	reg.RegisterExtern("Native", "coded", func([]Value) (Value, error) {
		return NewNull(), &Fault{Kind: FaultUser, Message: "bad input", Code: 77, HasCode: true, Props: shared}
	})

	_, err := run(t, reg, "Native", "coded")
	fault := expectFault(t, err, "bad input")
	shared["field"] = NewString("after")
	shared["extra"] = NewInt(1)

	if len(fault.Props) != 1 {
		t.Fatalf("got props %v want one entry", fault.Props)
	}
	expectValue(t, fault.Props["field"], NewString("before"))
}

func TestExternDispatch(t *testing.T) {
	reg := nativeRegistry(t)
	expectValue(t, mustRun(t, reg, "Native", "add", NewInt(2), NewInt(3)), NewInt(5))
	expectValue(t, mustRun(t, reg, "Native", "describe"), NewString("Native"))
	expectValue(t, mustRun(t, reg, "Native", "safe"), NewString("disk full"))
}

func TestExternFailures(t *testing.T) {
	reg := nativeRegistry(t)

	_, err := run(t, reg, "Native", "boom")
	fault := expectFault(t, err, "kaboom")
	if fault.Kind != FaultUser || fault.Code != CodeNativeFailed.Code {
		t.Fatalf("got kind %v code %d want user fault %d", fault.Kind, fault.Code, CodeNativeFailed.Code)
	}
	if len(fault.Frames) == 0 || fault.Frames[0].Function() != "Native.boom" {
		t.Fatalf("got frames %v want Native.boom first", fault.Frames)
	}

	_, err = run(t, reg, "Native", "coded")
	fault = expectFault(t, err, "bad input")
	if fault.Code != 77 {
		t.Fatalf("got code %d want 77", fault.Code)
	}

	_, err = run(t, reg, "Native", "missing")
	fault = expectFault(t, err, "extern method not registered")
	if fault.Code != CodeExternMissing.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodeExternMissing.Code)
	}
}

func TestInvokeUnknownTargets(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := run(t, reg, "Ghost", "main")
	expectFault(t, err, "type not defined")
	_, err = run(t, reg, ExceptionClass, "nothing")
	expectFault(t, err, "method not found")
}

func TestCallOnNullReceiver(t *testing.T) {
	reg := program(t, staticMethod("main", nil, ret(1, callOn(nullLit(), "speak"))))
	_, err := run(t, reg, "Main", "main")
	fault := expectFault(t, err, "null reference")
	if fault.Code != CodeNullReference.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodeNullReference.Code)
	}
}
