package quill

import "sort"

const (
	thisBinding  = "this"
	superBinding = "super"
)

// Env is the activation record of one method invocation. It holds arguments,
// locals, `this` and `super`; it is never captured past the invocation.
type Env struct {
	values map[string]Value
}

func NewEnv() *Env {
	return &Env{values: make(map[string]Value)}
}

func (e *Env) Get(name string) (Value, bool) {
	val, ok := e.values[name]
	return val, ok
}

func (e *Env) Define(name string, val Value) {
	e.values[name] = val
}

// Assign overwrites an existing binding or creates it.
func (e *Env) Assign(name string, val Value) {
	e.values[name] = val
}

func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
