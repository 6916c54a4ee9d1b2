package quill

import (
	"context"
	"math"
	"testing"
)

// tensArray builds a length-5 Integer array holding 0, 10, 20, 30, 40 and
// returns the element at index.
func tensArray(t *testing.T, index Expression) (Value, error) {
	t.Helper()
	reg := program(t, staticMethod("main", TypeInteger,
		&VarStmt{Name: "a", Type: ArrayOf(TypeInteger), Value: &NewArrayExpr{Elem: TypeInteger, Size: intLit(5)}, Loc: at(1)},
		&ForStmt{Var: "i", Start: intLit(0), Limit: intLit(4), Loc: at(2), Body: []Statement{
			&AssignIndexStmt{Target: local("a"), Index: local("i"), Value: binary(OpMul, local("i"), intLit(10)), Loc: at(3)},
		}},
		ret(4, &IndexExpr{Target: local("a"), Index: index}),
	))
	return run(t, reg, "Main", "main")
}

func TestArrayIndexing(t *testing.T) {
	tests := []struct {
		name  string
		index Expression
		want  int64
	}{
		{"first", intLit(0), 0},
		{"last", intLit(4), 40},
		{"negative from end", intLit(-1), 40},
		{"negative first", intLit(-5), 0},
		{"float truncated", floatLit(2.9), 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			val, err := tensArray(t, tc.index)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expectValue(t, val, NewInt(tc.want))
		})
	}
}

func TestArrayIndexOutOfRange(t *testing.T) {
	for _, idx := range []int64{-6, 5, 100} {
		_, err := tensArray(t, intLit(idx))
		fault := expectFault(t, err, "index out of range")
		if fault.Code != CodeIndexOutOfRange.Code {
			t.Fatalf("got code %d want %d", fault.Code, CodeIndexOutOfRange.Code)
		}
	}
}

func TestArrayLengthAndDefaults(t *testing.T) {
	reg := program(t,
		staticMethod("length", TypeInteger,
			ret(1, &LengthExpr{Target: &NewArrayExpr{Elem: TypeString, Size: floatLit(3.7)}}),
		),
		staticMethod("first", TypeString,
			ret(1, &IndexExpr{Target: &NewArrayExpr{Elem: TypeString, Size: intLit(2)}, Index: intLit(0)}),
		),
		staticMethod("negative", nil,
			ret(1, &NewArrayExpr{Elem: TypeInteger, Size: intLit(-1)}),
		),
		staticMethod("notArray", TypeInteger,
			ret(1, &LengthExpr{Target: strLit("abc")}),
		),
	)
	expectValue(t, mustRun(t, reg, "Main", "length"), NewInt(3))
	expectValue(t, mustRun(t, reg, "Main", "first"), NewString(""))

	_, err := run(t, reg, "Main", "negative")
	expectFault(t, err, "negative array size")
	_, err = run(t, reg, "Main", "notArray")
	fault := expectFault(t, err, "length of")
	if fault.Code != CodeNotAnArray.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodeNotAnArray.Code)
	}
}

func TestArraysAreShared(t *testing.T) {
	reg := program(t, staticMethod("main", TypeInteger,
		&VarStmt{Name: "a", Type: ArrayOf(TypeInteger), Value: &NewArrayExpr{Elem: TypeInteger, Size: intLit(1)}, Loc: at(1)},
		&VarStmt{Name: "b", Type: ArrayOf(TypeInteger), Value: local("a"), Loc: at(2)},
		&AssignIndexStmt{Target: local("b"), Index: intLit(0), Value: intLit(9), Loc: at(3)},
		ret(4, &IndexExpr{Target: local("a"), Index: intLit(0)}),
	))
	expectValue(t, mustRun(t, reg, "Main", "main"), NewInt(9))
}

func TestArraySizeBounds(t *testing.T) {
	tests := []struct {
		name string
		size Expression
		want string
		code int
	}{
		{"huge integer", intLit(1 << 62), "exceeds the maximum", CodeIndexOutOfRange.Code},
		{"huge float", floatLit(1e300), "exceeds the maximum", CodeIndexOutOfRange.Code},
		{"positive infinity", floatLit(math.Inf(1)), "exceeds the maximum", CodeIndexOutOfRange.Code},
		{"negative infinity", floatLit(math.Inf(-1)), "negative array size", CodeIndexOutOfRange.Code},
		{"not a number", floatLit(math.NaN()), "NaN", CodeInvalidOperand.Code},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalExpr(t, &NewArrayExpr{Elem: TypeInteger, Size: tc.size})
			fault := expectFault(t, err, tc.want)
			if fault.Kind != FaultUser || fault.Code != tc.code {
				t.Fatalf("got kind %v code %d want user fault %d", fault.Kind, fault.Code, tc.code)
			}
		})
	}
}

func TestArraySizeLimitIsConfigurableAndCatchable(t *testing.T) {
	reg := program(t,
		staticMethod("fits", TypeInteger,
			ret(1, &LengthExpr{Target: &NewArrayExpr{Elem: TypeInteger, Size: intLit(4)}}),
		),
		staticMethod("tooBig", TypeString,
			&TryStmt{
				Loc:      at(1),
				Body:     []Statement{ret(2, &LengthExpr{Target: &NewArrayExpr{Elem: TypeInteger, Size: intLit(5)}})},
				CatchVar: "e",
				Catch:    []Statement{ret(3, prop(local("e"), "message"))},
			},
		),
	)
	engine := MustNewEngine(Config{MaxArrayLength: 4})
	ctx := context.Background()

	got, err := engine.Invoke(ctx, reg, "Main", "fits", nil)
	if err != nil {
		t.Fatalf("fits: %v", err)
	}
	expectValue(t, got, NewInt(4))

	got, err = engine.Invoke(ctx, reg, "Main", "tooBig", nil)
	if err != nil {
		t.Fatalf("tooBig should be caught: %v", err)
	}
	if want := "index out of range: array size 5 exceeds the maximum 4"; got.String() != want {
		t.Fatalf("got %q want %q", got.String(), want)
	}
}
