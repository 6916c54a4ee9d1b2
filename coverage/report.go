// Package coverage records statement visits reported by the engine's
// statement hook and renders them as an XML report.
package coverage

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/mgomes/quill/quill"
)

// DefaultExcludeAttribute marks classes left out of the report.
const DefaultExcludeAttribute = "ExcludeFromCoverage"

// ReservedSources are declaring sources that never appear in a report.
var ReservedSources = []string{"<stdlib>", "<typelib>", "<internal>"}

type Options struct {
	// ExcludeAttribute overrides DefaultExcludeAttribute.
	ExcludeAttribute string
	Logger           *slog.Logger
}

type Statement struct {
	Pos    quill.Position
	Visits int
}

type Method struct {
	Name       string
	Arity      int
	Pos        quill.Position
	Statements []*Statement
}

type Class struct {
	Name    string
	Source  string
	Pos     quill.Position
	Methods []*Method
}

type statementKey struct {
	class  string
	method string
	arity  int
	pos    quill.Position
}

// Report is the visit-count tree for one run. It is not synchronized; the
// engine drives it from a single goroutine.
type Report struct {
	Classes []*Class
	index   map[statementKey]*Statement
}

// NewReport snapshots every eligible class. Two statements sharing a
// location inside one method make the location ambiguous and fail with an
// internal fault.
func NewReport(classes []*quill.Class, opts Options) (*Report, error) {
	attr := opts.ExcludeAttribute
	if attr == "" {
		attr = DefaultExcludeAttribute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	report := &Report{index: make(map[statementKey]*Statement)}
	for _, class := range classes {
		if class.HasAttribute(attr) || slices.Contains(ReservedSources, class.Source) {
			continue
		}
		cc := &Class{Name: class.Name, Source: class.Source, Pos: class.Pos}
		for _, method := range class.Methods {
			mc := &Method{Name: method.Name, Arity: len(method.Args), Pos: method.Pos}
			var dup error
			quill.WalkStatements(method.Body, func(stmt quill.Statement) {
				if dup != nil {
					return
				}
				key := statementKey{class: class.Name, method: method.Name, arity: mc.Arity, pos: stmt.Pos()}
				if _, exists := report.index[key]; exists {
					dup = quill.NewInternalFault("duplicate statement location %s in %s", stmt.Pos(), method.FullName())
					return
				}
				sc := &Statement{Pos: stmt.Pos()}
				report.index[key] = sc
				mc.Statements = append(mc.Statements, sc)
			})
			if dup != nil {
				return nil, dup
			}
			cc.Methods = append(cc.Methods, mc)
		}
		report.Classes = append(report.Classes, cc)
	}

	total, _ := report.Totals()
	logger.Debug("coverage snapshot", "classes", len(report.Classes), "statements", total)
	return report, nil
}

// Visit is a quill.StatementHook. Statements outside the snapshot are
// ignored.
func (r *Report) Visit(method *quill.Method, stmt quill.Statement, _ quill.Types, _ *quill.Env) {
	if method == nil || method.Class == nil {
		return
	}
	key := statementKey{class: method.Class.Name, method: method.Name, arity: len(method.Args), pos: stmt.Pos()}
	if sc, ok := r.index[key]; ok {
		sc.Visits++
	}
}

// Totals counts statements and statements visited at least once.
func (r *Report) Totals() (total, covered int) {
	for _, class := range r.Classes {
		t, c := class.Totals()
		total += t
		covered += c
	}
	return total, covered
}

func (r *Report) Percentage() int {
	total, covered := r.Totals()
	return Percentage(covered, total)
}

func (c *Class) Totals() (total, covered int) {
	for _, method := range c.Methods {
		t, cv := method.Totals()
		total += t
		covered += cv
	}
	return total, covered
}

func (m *Method) Totals() (total, covered int) {
	for _, stmt := range m.Statements {
		total++
		if stmt.Visits > 0 {
			covered++
		}
	}
	return total, covered
}

// Percentage truncates: 1 of 3 is 33.
func Percentage(covered, total int) int {
	if total == 0 {
		return 0
	}
	return covered * 100 / total
}

// Merge adds other's visit counts. Both reports must describe the same
// program shape.
func (r *Report) Merge(other *Report) error {
	for _, class := range other.Classes {
		for _, method := range class.Methods {
			for _, stmt := range method.Statements {
				key := statementKey{class: class.Name, method: method.Name, arity: method.Arity, pos: stmt.Pos}
				sc, ok := r.index[key]
				if !ok {
					return fmt.Errorf("merge coverage: unknown statement %s.%s at %s", class.Name, method.Name, stmt.Pos)
				}
				sc.Visits += stmt.Visits
			}
		}
	}
	return nil
}

func (r *Report) reindex() error {
	r.index = make(map[statementKey]*Statement)
	for _, class := range r.Classes {
		for _, method := range class.Methods {
			for _, stmt := range method.Statements {
				key := statementKey{class: class.Name, method: method.Name, arity: method.Arity, pos: stmt.Pos}
				if _, exists := r.index[key]; exists {
					return fmt.Errorf("duplicate statement %s.%s at %s", class.Name, method.Name, stmt.Pos)
				}
				r.index[key] = stmt
			}
		}
	}
	return nil
}
