package quill

import "strings"

// Attribute is a named annotation with literal parameters, e.g.
// ExcludeFromCoverage or Test.
type Attribute struct {
	Name   string
	Params []Value
}

type Param struct {
	Name string
	Type *Type
}

type Property struct {
	Name   string
	Type   *Type
	Static bool
	Const  bool
	// Initial seeds static and constant slots. Instance slots always start
	// at their type's default.
	Initial *Value
	Pos     Position
}

type Class struct {
	Name       string
	Parent     *Class
	Methods    []*Method
	Properties []*Property
	Attributes []Attribute
	Source     string
	Pos        Position
}

type Method struct {
	Class       *Class
	Name        string
	Static      bool
	Extern      bool
	Constructor bool
	Args        []Param
	Returns     *Type
	Body        []Statement
	Pos         Position
	Attributes  []Attribute
}

func (m *Method) FullName() string {
	if m == nil {
		return "<host>"
	}
	if m.Class == nil {
		return m.Name
	}
	return m.Class.Name + "." + m.Name
}

func (m *Method) HasAttribute(name string) bool {
	return hasAttribute(m.Attributes, name)
}

func (c *Class) HasAttribute(name string) bool {
	return hasAttribute(c.Attributes, name)
}

func hasAttribute(attrs []Attribute, name string) bool {
	for _, attr := range attrs {
		if strings.EqualFold(attr.Name, name) {
			return true
		}
	}
	return false
}

// OwnMethod finds a method declared on c itself. A negative arity matches
// any overload.
func (c *Class) OwnMethod(name string, arity int) *Method {
	var byName *Method
	for _, m := range c.Methods {
		if m.Name != name {
			continue
		}
		if arity < 0 || len(m.Args) == arity {
			return m
		}
		if byName == nil {
			byName = m
		}
	}
	return byName
}

// FindMethod walks the inheritance chain. An overload with the requested
// arity wins over a same-named method with a different arity.
func (c *Class) FindMethod(name string, arity int) *Method {
	var fallback *Method
	for cls := c; cls != nil; cls = cls.Parent {
		for _, m := range cls.Methods {
			if m.Name != name {
				continue
			}
			if arity < 0 || len(m.Args) == arity {
				return m
			}
			if fallback == nil {
				fallback = m
			}
		}
	}
	return fallback
}

// Constructor returns the constructor declared on c with the given arity.
func (c *Class) Constructor(arity int) *Method {
	for _, m := range c.Methods {
		if m.Constructor && len(m.Args) == arity {
			return m
		}
	}
	return nil
}

func (c *Class) IsSubclassOf(other *Class) bool {
	if other == nil {
		return false
	}
	for cls := c; cls != nil; cls = cls.Parent {
		if cls == other || cls.Name == other.Name {
			return true
		}
	}
	return false
}

// IsNestedIn reports whether c is declared inside outer by the dotted naming
// convention.
func (c *Class) IsNestedIn(outer *Class) bool {
	return outer != nil && strings.HasPrefix(c.Name, outer.Name+".")
}

// InstanceProperties flattens inherited and own instance properties, parent
// first. A redeclared name keeps the parent's position in the order.
func (c *Class) InstanceProperties() []*Property {
	var chain []*Class
	for cls := c; cls != nil; cls = cls.Parent {
		chain = append(chain, cls)
	}
	seen := make(map[string]int)
	var out []*Property
	for i := len(chain) - 1; i >= 0; i-- {
		for _, prop := range chain[i].Properties {
			if prop.Static || prop.Const {
				continue
			}
			if idx, ok := seen[prop.Name]; ok {
				out[idx] = prop
				continue
			}
			seen[prop.Name] = len(out)
			out = append(out, prop)
		}
	}
	return out
}

// Object is an instance of a class. Class drives method resolution and
// kind-of checks; Owner links a nested-class instance to its enclosing
// instance and is never followed for inheritance.
type Object struct {
	Class *Class
	Owner *Object
	names []string
	slots map[string]Value
}

// NewObject allocates an instance with every slot set to its type default.
func NewObject(class *Class, owner *Object) *Object {
	props := class.InstanceProperties()
	obj := &Object{
		Class: class,
		Owner: owner,
		names: make([]string, 0, len(props)),
		slots: make(map[string]Value, len(props)),
	}
	for _, prop := range props {
		obj.names = append(obj.names, prop.Name)
		obj.slots[prop.Name] = prop.Type.Default()
	}
	return obj
}

func (o *Object) Get(name string) (Value, bool) {
	val, ok := o.slots[name]
	return val, ok
}

func (o *Object) Has(name string) bool {
	_, ok := o.slots[name]
	return ok
}

// Set writes an existing slot. It never adds slots.
func (o *Object) Set(name string, val Value) bool {
	if _, ok := o.slots[name]; !ok {
		return false
	}
	o.slots[name] = val
	return true
}

// PropertyNames returns the slot names in declaration order.
func (o *Object) PropertyNames() []string {
	return append([]string(nil), o.names...)
}

// Array is a fixed-length, uniformly typed sequence.
type Array struct {
	Elem  *Type
	items []Value
}

func NewArray(elem *Type, length int) *Array {
	items := make([]Value, length)
	def := elem.Default()
	for i := range items {
		items[i] = def
	}
	return &Array{Elem: elem, items: items}
}

// ArrayOfValues wraps existing values, mostly for natives and tests.
func ArrayOfValues(elem *Type, values []Value) *Array {
	return &Array{Elem: elem, items: append([]Value(nil), values...)}
}

func (a *Array) Len() int { return len(a.items) }

func (a *Array) At(i int) Value { return a.items[i] }

func (a *Array) SetAt(i int, v Value) { a.items[i] = v }

func (a *Array) Values() []Value { return append([]Value(nil), a.items...) }
