package quill

import (
	"testing"
	"time"
)

func TestRegistryDefineRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define(&Class{Name: "A"}); err != nil {
		t.Fatalf("define: %v", err)
	}
	if err := reg.Define(&Class{Name: "A"}); err == nil {
		t.Fatalf("expected duplicate class error")
	}
	if err := reg.Define(&Class{}); err == nil {
		t.Fatalf("expected empty name error")
	}
	if got := len(reg.Classes()); got != 1 {
		t.Fatalf("got %d classes want 1", got)
	}
}

func TestRegistryIsKindOf(t *testing.T) {
	reg := newTestRegistry(t)
	exception := lookupClass(t, reg, ExceptionClass)
	appErr := define(t, reg, &Class{Name: "AppError", Parent: exception})
	define(t, reg, &Class{Name: "DbError", Parent: appErr})

	tests := []struct {
		class, marker string
		want          bool
	}{
		{"DbError", ExceptionClass, true},
		{"DbError", "AppError", true},
		{"AppError", "DbError", false},
		{"System", ExceptionClass, false},
		{"Unknown", "Unknown", true},
		{"Unknown", ExceptionClass, false},
	}
	for _, tc := range tests {
		if got := reg.IsKindOf(tc.class, tc.marker); got != tc.want {
			t.Fatalf("IsKindOf(%s, %s): got %v want %v", tc.class, tc.marker, got, tc.want)
		}
	}
}

func TestRegistryCastTo(t *testing.T) {
	reg := newTestRegistry(t)
	exc := NewObjectValue(NewObject(lookupClass(t, reg, ExceptionClass), nil))
	ints := NewArrayValue(NewArray(TypeInteger, 2))
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target *Type
		val    Value
		want   Value
		ok     bool
	}{
		{"float to int", TypeInteger, NewFloat(3.9), NewInt(3), true},
		{"string to int", TypeInteger, NewString("12"), NewInt(12), true},
		{"bad string to int", TypeInteger, NewString("x"), NewNull(), false},
		{"int to float", TypeFloat, NewInt(2), NewFloat(2), true},
		{"int to string", TypeString, NewInt(5), NewString("5"), true},
		{"null to string", TypeString, NewNull(), NewString("null"), true},
		{"object to string", TypeString, exc, NewNull(), false},
		{"int to boolean", TypeBoolean, NewInt(0), NewBool(false), true},
		{"string to instant", TypeInstant, NewString("2024-03-01T12:00:00Z"), NewInstant(stamp), true},
		{"null to class", &Type{Name: ExceptionClass}, NewNull(), NewNull(), true},
		{"object to own class", &Type{Name: ExceptionClass}, exc, exc, true},
		{"object to other class", &Type{Name: SystemClass}, exc, NewNull(), false},
		{"array to matching array", ArrayOf(TypeInteger), ints, ints, true},
		{"array to other array", ArrayOf(TypeString), ints, ints, false},
		{"anything to void", TypeVoid, NewInt(1), NewNull(), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.CastTo(tc.target, tc.val)
			if ok != tc.ok {
				t.Fatalf("got ok %v want %v", ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestObjectSlotsFollowInstanceProperties(t *testing.T) {
	seed := NewInt(1)
	base := &Class{Name: "Base", Properties: []*Property{
		{Name: "id", Type: TypeInteger},
		{Name: "shared", Type: TypeInteger, Static: true, Initial: &seed},
	}}
	child := &Class{Name: "Child", Parent: base, Properties: []*Property{
		{Name: "label", Type: TypeString},
		{Name: "LIMIT", Type: TypeInteger, Const: true},
	}}
	obj := NewObject(child, nil)

	names := obj.PropertyNames()
	if len(names) != 2 || names[0] != "id" || names[1] != "label" {
		t.Fatalf("got slots %v want [id label]", names)
	}
	if obj.Set("extra", NewInt(1)) {
		t.Fatalf("Set should not add slots")
	}
	label, _ := obj.Get("label")
	expectValue(t, label, NewString(""))
}

func TestStandardLibrary(t *testing.T) {
	reg := newTestRegistry(t)
	for _, name := range []string{ExceptionClass, SystemClass} {
		if class := lookupClass(t, reg, name); class.Source != StdlibSource {
			t.Fatalf("%s source: got %q want %q", name, class.Source, StdlibSource)
		}
	}
	define(t, reg, &Class{Name: "Main", Methods: []*Method{
		staticMethod("length", TypeInteger, ret(1, call(SystemClass, "length", strLit("héllo")))),
		staticMethod("parse", TypeInteger, ret(1, call(SystemClass, "parseInt", strLit(" 41 ")))),
		staticMethod("badParse", TypeInteger, ret(1, call(SystemClass, "parseInt", strLit("forty")))),
	}})
	expectValue(t, mustRun(t, reg, "Main", "length"), NewInt(5))
	expectValue(t, mustRun(t, reg, "Main", "parse"), NewInt(41))

	_, err := run(t, reg, "Main", "badParse")
	fault := expectFault(t, err, "cannot parse")
	if fault.Code != CodeNativeFailed.Code {
		t.Fatalf("got code %d want %d", fault.Code, CodeNativeFailed.Code)
	}
}
