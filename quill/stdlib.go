package quill

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// StdlibSource is the Source of every class RegisterStandardLibrary installs.
const StdlibSource = "<stdlib>"

// SystemClass hosts the static natives.
const SystemClass = "System"

// RegisterStandardLibrary defines Exception and System on reg. System.print
// writes to out.
func RegisterStandardLibrary(reg *Registry, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	exception := &Class{
		Name:   ExceptionClass,
		Source: StdlibSource,
		Properties: []*Property{
			{Name: messageProperty, Type: TypeString},
		},
	}
	exception.Methods = []*Method{{
		Class:       exception,
		Name:        "constructor",
		Constructor: true,
		Args:        []Param{{Name: "message", Type: TypeString}},
		Body: []Statement{
			&AssignPropertyStmt{
				Target: &VariableExpr{Name: thisBinding},
				Name:   messageProperty,
				Value:  &ArgumentExpr{Name: "message"},
			},
		},
	}}
	if err := reg.Define(exception); err != nil {
		return err
	}

	system := &Class{Name: SystemClass, Source: StdlibSource}
	natives := []struct {
		name    string
		args    []Param
		returns *Type
		fn      NativeFunc
	}{
		{"print", []Param{{Name: "value", Type: TypeString}}, TypeVoid, func(args []Value) (Value, error) {
			_, err := fmt.Fprintln(out, args[0].String())
			return NewNull(), err
		}},
		{"now", nil, TypeInstant, func([]Value) (Value, error) {
			return NewInstant(time.Now().UTC()), nil
		}},
		{"length", []Param{{Name: "value", Type: TypeString}}, TypeInteger, func(args []Value) (Value, error) {
			if arr, ok := args[0].Array(); ok {
				return NewInt(int64(arr.Len())), nil
			}
			if args[0].Kind() != KindString {
				return NewNull(), fmt.Errorf("length expects a String, got %s", args[0].Kind())
			}
			return NewInt(int64(utf8.RuneCountInString(args[0].String()))), nil
		}},
		{"parseInt", []Param{{Name: "text", Type: TypeString}}, TypeInteger, func(args []Value) (Value, error) {
			text := strings.TrimSpace(args[0].String())
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return NewNull(), fmt.Errorf("cannot parse %q as Integer", text)
			}
			return NewInt(n), nil
		}},
	}
	for _, native := range natives {
		system.Methods = append(system.Methods, &Method{
			Class:   system,
			Name:    native.name,
			Static:  true,
			Extern:  true,
			Args:    native.args,
			Returns: native.returns,
		})
		reg.RegisterExtern(SystemClass, native.name, native.fn)
	}
	return reg.Define(system)
}
