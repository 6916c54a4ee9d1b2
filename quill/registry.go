package quill

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ExceptionClass is the reserved marker every thrown class must be a kind of.
const ExceptionClass = "Exception"

// NativeFunc implements an extern method. Instance externs receive their
// receiver as args[0].
type NativeFunc func(args []Value) (Value, error)

// Types is the type registry the engine consumes: class lookup, kind-of
// tests, coercion, the extern table and static property slots.
type Types interface {
	SearchClass(name string) (*Class, bool)
	IsKindOf(className, marker string) bool
	CastTo(target *Type, val Value) (Value, bool)
	LookupExtern(className, methodName string) (NativeFunc, bool)
	Static(className, name string) (Value, bool)
	SetStatic(className, name string, val Value) bool
	Classes() []*Class
}

// Registry is the in-memory Types implementation. It is not synchronized.
type Registry struct {
	classes map[string]*Class
	order   []*Class
	statics map[string]map[string]Value
	externs map[string]NativeFunc
}

func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		statics: make(map[string]map[string]Value),
		externs: make(map[string]NativeFunc),
	}
}

// Define registers a class and seeds its static slots.
func (r *Registry) Define(class *Class) error {
	if class == nil || class.Name == "" {
		return fmt.Errorf("quill: class name cannot be empty")
	}
	if _, exists := r.classes[class.Name]; exists {
		return fmt.Errorf("quill: class %s already defined", class.Name)
	}
	r.classes[class.Name] = class
	r.order = append(r.order, class)

	slots := make(map[string]Value)
	for _, prop := range class.Properties {
		if !prop.Static && !prop.Const {
			continue
		}
		if prop.Initial != nil {
			slots[prop.Name] = *prop.Initial
		} else {
			slots[prop.Name] = prop.Type.Default()
		}
	}
	r.statics[class.Name] = slots
	return nil
}

// MustDefine is Define for fixtures and standard-library setup.
func (r *Registry) MustDefine(class *Class) *Class {
	if err := r.Define(class); err != nil {
		panic(err)
	}
	return class
}

func (r *Registry) RegisterExtern(className, methodName string, fn NativeFunc) {
	r.externs[externKey(className, methodName)] = fn
}

func externKey(className, methodName string) string {
	return className + "::" + methodName
}

func (r *Registry) SearchClass(name string) (*Class, bool) {
	class, ok := r.classes[name]
	return class, ok
}

func (r *Registry) IsKindOf(className, marker string) bool {
	class, ok := r.classes[className]
	if !ok {
		return className == marker
	}
	for cls := class; cls != nil; cls = cls.Parent {
		if cls.Name == marker {
			return true
		}
	}
	return false
}

func (r *Registry) LookupExtern(className, methodName string) (NativeFunc, bool) {
	fn, ok := r.externs[externKey(className, methodName)]
	return fn, ok
}

func (r *Registry) Static(className, name string) (Value, bool) {
	slots, ok := r.statics[className]
	if !ok {
		return NewNull(), false
	}
	val, ok := slots[name]
	return val, ok
}

func (r *Registry) SetStatic(className, name string, val Value) bool {
	slots, ok := r.statics[className]
	if !ok {
		return false
	}
	if _, ok := slots[name]; !ok {
		return false
	}
	slots[name] = val
	return true
}

// Classes returns the registered classes in definition order.
func (r *Registry) Classes() []*Class {
	return append([]*Class(nil), r.order...)
}

// CastTo applies the coercion table. Null casts to any class or array type.
func (r *Registry) CastTo(target *Type, val Value) (Value, bool) {
	if target == nil {
		return val, true
	}
	if target.IsArray() {
		if val.IsNull() {
			return val, true
		}
		arr, ok := val.Array()
		if !ok {
			return NewNull(), false
		}
		return val, arr.Elem.String() == target.Elem.String()
	}

	switch target.Name {
	case TypeNameInteger:
		return castToInteger(val)
	case TypeNameFloat:
		return castToFloat(val)
	case TypeNameString:
		return castToString(val)
	case TypeNameBoolean:
		return castToBoolean(val)
	case TypeNameInstant:
		return castToInstant(val)
	case TypeNameVoid:
		return NewNull(), false
	}

	if val.IsNull() {
		return val, true
	}
	obj, ok := val.Object()
	if !ok {
		return NewNull(), false
	}
	if r.IsKindOf(obj.Class.Name, target.Name) {
		return val, true
	}
	return NewNull(), false
}

func castToInteger(val Value) (Value, bool) {
	switch val.Kind() {
	case KindInt:
		return val, true
	case KindFloat:
		f := val.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return NewNull(), false
		}
		return NewInt(int64(f)), true
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(val.String()), 10, 64)
		if err != nil {
			return NewNull(), false
		}
		return NewInt(i), true
	case KindBool:
		if val.Bool() {
			return NewInt(1), true
		}
		return NewInt(0), true
	default:
		return NewNull(), false
	}
}

func castToFloat(val Value) (Value, bool) {
	switch val.Kind() {
	case KindInt, KindFloat:
		return NewFloat(val.Float()), true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.String()), 64)
		if err != nil {
			return NewNull(), false
		}
		return NewFloat(f), true
	default:
		return NewNull(), false
	}
}

func castToString(val Value) (Value, bool) {
	switch val.Kind() {
	case KindString:
		return val, true
	case KindNull, KindBool, KindInt, KindFloat, KindInstant:
		return NewString(val.String()), true
	default:
		return NewNull(), false
	}
}

func castToBoolean(val Value) (Value, bool) {
	switch val.Kind() {
	case KindBool:
		return val, true
	case KindInt:
		return NewBool(val.Int() != 0), true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(val.String()))
		if err != nil {
			return NewNull(), false
		}
		return NewBool(b), true
	default:
		return NewNull(), false
	}
}

func castToInstant(val Value) (Value, bool) {
	switch val.Kind() {
	case KindInstant:
		return val, true
	case KindInt:
		return NewInstant(time.Unix(val.Int(), 0).UTC()), true
	case KindString:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(val.String()))
		if err != nil {
			return NewNull(), false
		}
		return NewInstant(t), true
	default:
		return NewNull(), false
	}
}
