// Package program loads class definitions from YAML program documents and
// installs them into a quill registry.
package program

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mgomes/quill/quill"
)

// TestAttribute marks methods run by `quill test`.
const TestAttribute = "Test"

// Program is a decoded document. Parent links are resolved by Install.
type Program struct {
	Source  string
	Classes []*quill.Class
	parents map[string]string
}

type document struct {
	Classes []yaml.Node `yaml:"classes"`
}

type classYAML struct {
	Name       string          `yaml:"name"`
	Parent     string          `yaml:"parent"`
	Line       int             `yaml:"line"`
	Column     int             `yaml:"column"`
	Attributes []attributeYAML `yaml:"attributes"`
	Properties []propertyYAML  `yaml:"properties"`
	Methods    []yaml.Node     `yaml:"methods"`
}

type propertyYAML struct {
	Name    string     `yaml:"name"`
	Type    string     `yaml:"type"`
	Static  bool       `yaml:"static"`
	Const   bool       `yaml:"const"`
	Initial *yaml.Node `yaml:"initial"`
	Line    int        `yaml:"line"`
	Column  int        `yaml:"column"`
}

type paramYAML struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type methodYAML struct {
	Name        string          `yaml:"name"`
	Static      bool            `yaml:"static"`
	Extern      bool            `yaml:"extern"`
	Constructor bool            `yaml:"constructor"`
	Args        []paramYAML     `yaml:"args"`
	Returns     string          `yaml:"returns"`
	Attributes  []attributeYAML `yaml:"attributes"`
	Line        int             `yaml:"line"`
	Column      int             `yaml:"column"`
	Body        []yaml.Node     `yaml:"body"`
}

// attributeYAML accepts either a bare name or {name, params}.
type attributeYAML struct {
	Name   string
	Params []yaml.Node
}

func (a *attributeYAML) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		a.Name = strings.TrimSpace(value.Value)
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name   string      `yaml:"name"`
			Params []yaml.Node `yaml:"params"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		a.Name = strings.TrimSpace(raw.Name)
		a.Params = raw.Params
		return nil
	default:
		return fmt.Errorf("line %d: attribute must be a name or a mapping", value.Line)
	}
}

// Load reads and decodes the document at path.
func Load(path string) (*Program, error) {
	if path == "" {
		return nil, fmt.Errorf("program: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("program: read %s: %w", path, err)
	}
	return Decode(data, filepath.Base(path))
}

// Decode builds classes from a YAML document. source becomes every class's
// Source and prefixes error messages.
func Decode(data []byte, source string) (*Program, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("program: %s is empty", source)
		}
		return nil, fmt.Errorf("program: parse %s: %w", source, err)
	}

	d := &decoder{source: source}
	prog := &Program{Source: source, parents: make(map[string]string)}
	seen := make(map[string]bool)
	for i := range doc.Classes {
		class, parent, err := d.class(&doc.Classes[i])
		if err != nil {
			return nil, err
		}
		if seen[class.Name] {
			return nil, d.errorf(&doc.Classes[i], "class %s declared twice", class.Name)
		}
		seen[class.Name] = true
		prog.Classes = append(prog.Classes, class)
		if parent != "" {
			prog.parents[class.Name] = parent
		}
	}
	return prog, nil
}

func (d *decoder) class(node *yaml.Node) (*quill.Class, string, error) {
	var raw classYAML
	if err := node.Decode(&raw); err != nil {
		return nil, "", d.errorf(node, "%v", err)
	}
	if raw.Name == "" {
		return nil, "", d.errorf(node, "class without a name")
	}

	class := &quill.Class{
		Name:   raw.Name,
		Source: d.source,
		Pos:    position(raw.Line, raw.Column, node),
	}
	attrs, err := d.attributes(raw.Attributes)
	if err != nil {
		return nil, "", err
	}
	class.Attributes = attrs

	for _, p := range raw.Properties {
		if p.Name == "" {
			return nil, "", d.errorf(node, "property without a name in %s", raw.Name)
		}
		prop := &quill.Property{
			Name:   p.Name,
			Type:   quill.ParseType(p.Type),
			Static: p.Static,
			Const:  p.Const,
			Pos:    quill.Position{Line: p.Line, Column: p.Column},
		}
		if p.Initial != nil {
			val, err := d.scalar(p.Initial, p.Type)
			if err != nil {
				return nil, "", err
			}
			prop.Initial = &val
		}
		class.Properties = append(class.Properties, prop)
	}

	for i := range raw.Methods {
		method, err := d.method(&raw.Methods[i], class)
		if err != nil {
			return nil, "", err
		}
		class.Methods = append(class.Methods, method)
	}
	return class, strings.TrimSpace(raw.Parent), nil
}

func (d *decoder) method(node *yaml.Node, class *quill.Class) (*quill.Method, error) {
	var raw methodYAML
	if err := node.Decode(&raw); err != nil {
		return nil, d.errorf(node, "%v", err)
	}
	if raw.Name == "" {
		return nil, d.errorf(node, "method without a name in %s", class.Name)
	}
	if raw.Extern && len(raw.Body) > 0 {
		return nil, d.errorf(node, "extern method %s.%s cannot have a body", class.Name, raw.Name)
	}

	method := &quill.Method{
		Class:       class,
		Name:        raw.Name,
		Static:      raw.Static,
		Extern:      raw.Extern,
		Constructor: raw.Constructor,
		Pos:         position(raw.Line, raw.Column, node),
	}
	if raw.Returns != "" {
		method.Returns = quill.ParseType(raw.Returns)
	}
	for _, arg := range raw.Args {
		method.Args = append(method.Args, quill.Param{Name: arg.Name, Type: quill.ParseType(arg.Type)})
	}
	attrs, err := d.attributes(raw.Attributes)
	if err != nil {
		return nil, err
	}
	method.Attributes = attrs

	body, err := d.statements(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", class.Name, raw.Name, err)
	}
	method.Body = body
	return method, nil
}

func (d *decoder) attributes(raw []attributeYAML) ([]quill.Attribute, error) {
	var out []quill.Attribute
	for _, a := range raw {
		attr := quill.Attribute{Name: a.Name}
		for i := range a.Params {
			val, err := d.scalar(&a.Params[i], "")
			if err != nil {
				return nil, err
			}
			attr.Params = append(attr.Params, val)
		}
		out = append(out, attr)
	}
	return out, nil
}

// Install resolves parent classes, against the program first and then the
// registry, and defines every class on reg.
func Install(reg *quill.Registry, prog *Program) error {
	byName := make(map[string]*quill.Class, len(prog.Classes))
	for _, class := range prog.Classes {
		byName[class.Name] = class
	}
	for _, class := range prog.Classes {
		name, ok := prog.parents[class.Name]
		if !ok {
			continue
		}
		parent := byName[name]
		if parent == nil {
			if parent, ok = reg.SearchClass(name); !ok {
				return fmt.Errorf("program: %s extends unknown class %s", class.Name, name)
			}
		}
		class.Parent = parent
	}
	for _, class := range prog.Classes {
		steps := 0
		for cls := class.Parent; cls != nil; cls = cls.Parent {
			if cls == class || steps > len(byName) {
				return fmt.Errorf("program: inheritance cycle through %s", class.Name)
			}
			steps++
		}
	}
	for _, class := range prog.Classes {
		if err := reg.Define(class); err != nil {
			return fmt.Errorf("program: install: %w", err)
		}
	}
	return nil
}

// Tests returns every method carrying the Test attribute, in declaration
// order.
func (p *Program) Tests() []*quill.Method {
	var tests []*quill.Method
	for _, class := range p.Classes {
		for _, method := range class.Methods {
			if method.HasAttribute(TestAttribute) {
				tests = append(tests, method)
			}
		}
	}
	return tests
}
