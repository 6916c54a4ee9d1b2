package quill

import (
	"strings"
	"time"
)

const (
	TypeNameInteger = "Integer"
	TypeNameFloat   = "Float"
	TypeNameString  = "String"
	TypeNameBoolean = "Boolean"
	TypeNameInstant = "Instant"
	TypeNameVoid    = "Void"
)

// Type is a declared type: a built-in scalar, a class name, or an array of
// an element type.
type Type struct {
	Name string
	Elem *Type
}

var (
	TypeInteger = &Type{Name: TypeNameInteger}
	TypeFloat   = &Type{Name: TypeNameFloat}
	TypeString  = &Type{Name: TypeNameString}
	TypeBoolean = &Type{Name: TypeNameBoolean}
	TypeInstant = &Type{Name: TypeNameInstant}
	TypeVoid    = &Type{Name: TypeNameVoid}
)

func ArrayOf(elem *Type) *Type {
	return &Type{Name: elem.String() + "[]", Elem: elem}
}

// ParseType understands the built-in names, class names and a trailing
// `[]` for arrays.
func ParseType(name string) *Type {
	name = strings.TrimSpace(name)
	if name == "" {
		return TypeVoid
	}
	if strings.HasSuffix(name, "[]") {
		return ArrayOf(ParseType(strings.TrimSuffix(name, "[]")))
	}
	switch name {
	case TypeNameInteger:
		return TypeInteger
	case TypeNameFloat:
		return TypeFloat
	case TypeNameString:
		return TypeString
	case TypeNameBoolean:
		return TypeBoolean
	case TypeNameInstant:
		return TypeInstant
	case TypeNameVoid:
		return TypeVoid
	default:
		return &Type{Name: name}
	}
}

func (t *Type) IsArray() bool { return t != nil && t.Elem != nil }

func (t *Type) String() string {
	if t == nil {
		return TypeNameVoid
	}
	if t.Elem != nil {
		return t.Elem.String() + "[]"
	}
	return t.Name
}

// Default returns the zero value slots and return values of this type start
// with. Class, array and void types default to null.
func (t *Type) Default() Value {
	if t == nil || t.Elem != nil {
		return NewNull()
	}
	switch t.Name {
	case TypeNameInteger:
		return NewInt(0)
	case TypeNameFloat:
		return NewFloat(0)
	case TypeNameString:
		return NewString("")
	case TypeNameBoolean:
		return NewBool(false)
	case TypeNameInstant:
		return NewInstant(time.Time{})
	default:
		return NewNull()
	}
}

// IsBuiltin reports whether the type is a scalar rather than a class.
func (t *Type) IsBuiltin() bool {
	if t == nil {
		return true
	}
	switch t.Name {
	case TypeNameInteger, TypeNameFloat, TypeNameString, TypeNameBoolean, TypeNameInstant, TypeNameVoid:
		return true
	default:
		return false
	}
}
