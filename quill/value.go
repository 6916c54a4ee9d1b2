package quill

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindInstant
	KindObject
	KindArray
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Boolean"
	case KindInt:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindInstant:
		return "Instant"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a runtime value. Scalars are copied; objects and arrays are
// shared by reference.
type Value struct {
	kind ValueKind
	data any
}

func NewNull() Value               { return Value{kind: KindNull} }
func NewBool(b bool) Value         { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value         { return Value{kind: KindInt, data: i} }
func NewFloat(f float64) Value     { return Value{kind: KindFloat, data: f} }
func NewString(s string) Value     { return Value{kind: KindString, data: s} }
func NewInstant(t time.Time) Value { return Value{kind: KindInstant, data: t} }

func NewObjectValue(o *Object) Value {
	if o == nil {
		return NewNull()
	}
	return Value{kind: KindObject, data: o}
}

func NewArrayValue(a *Array) Value {
	if a == nil {
		return NewNull()
	}
	return Value{kind: KindArray, data: a}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	default:
		return 0
	}
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.data.(float64)
	case KindInt:
		return float64(v.data.(int64))
	default:
		return 0
	}
}

func (v Value) Instant() time.Time {
	if v.kind == KindInstant {
		return v.data.(time.Time)
	}
	return time.Time{}
}

func (v Value) Object() (*Object, bool) {
	if v.kind == KindObject {
		return v.data.(*Object), true
	}
	return nil, false
}

func (v Value) Array() (*Array, bool) {
	if v.kind == KindArray {
		return v.data.(*Array), true
	}
	return nil, false
}

// String renders the value for display. Strings are returned unquoted.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.data.(string)
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.data.(bool))
	case KindInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case KindFloat:
		return formatFloat(v.data.(float64))
	case KindInstant:
		return v.data.(time.Time).Format(time.RFC3339Nano)
	case KindObject:
		return fmt.Sprintf("<%s instance>", v.data.(*Object).Class.Name)
	case KindArray:
		arr := v.data.(*Array)
		parts := make([]string, len(arr.items))
		for i, item := range arr.items {
			parts[i] = item.String()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

// Equal reports structural equality for scalars and reference identity for
// objects and arrays. It backs host-side comparisons and tests; the language's
// `=` operator goes through the comparability rules in compareValues.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool() == other.Bool()
	case KindInt:
		return v.data.(int64) == other.data.(int64)
	case KindFloat:
		return v.data.(float64) == other.data.(float64)
	case KindString:
		return v.data.(string) == other.data.(string)
	case KindInstant:
		return v.data.(time.Time).Equal(other.data.(time.Time))
	default:
		return v.data == other.data
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
