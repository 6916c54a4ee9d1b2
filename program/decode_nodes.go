package program

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mgomes/quill/quill"
)

type decoder struct {
	source string
}

func (d *decoder) errorf(node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", d.source, node.Line, fmt.Sprintf(format, args...))
}

// nodeYAML is the union of every statement and expression field; kind picks
// which ones apply.
type nodeYAML struct {
	Kind      string       `yaml:"kind"`
	Line      int          `yaml:"line"`
	Column    int          `yaml:"column"`
	Name      string       `yaml:"name"`
	Class     string       `yaml:"class"`
	Method    string       `yaml:"method"`
	Var       string       `yaml:"var"`
	Op        string       `yaml:"op"`
	Type      string       `yaml:"type"`
	Super     bool         `yaml:"super"`
	Value     *yaml.Node   `yaml:"value"`
	Target    *yaml.Node   `yaml:"target"`
	Index     *yaml.Node   `yaml:"index"`
	Size      *yaml.Node   `yaml:"size"`
	Receiver  *yaml.Node   `yaml:"receiver"`
	Left      *yaml.Node   `yaml:"left"`
	Right     *yaml.Node   `yaml:"right"`
	Operand   *yaml.Node   `yaml:"operand"`
	Condition *yaml.Node   `yaml:"condition"`
	Until     *yaml.Node   `yaml:"until"`
	Start     *yaml.Node   `yaml:"start"`
	Limit     *yaml.Node   `yaml:"limit"`
	Step      *yaml.Node   `yaml:"step"`
	Args      []yaml.Node  `yaml:"args"`
	Body      []yaml.Node  `yaml:"body"`
	Else      []yaml.Node  `yaml:"else"`
	Clauses   []clauseYAML `yaml:"clauses"`
	CatchVar  string       `yaml:"catch_var"`
	CatchType string       `yaml:"catch_type"`
	Catch     []yaml.Node  `yaml:"catch"`
}

type clauseYAML struct {
	Condition *yaml.Node  `yaml:"condition"`
	Body      []yaml.Node `yaml:"body"`
}

// position prefers explicit line/column fields over the YAML node's own.
func position(line, column int, node *yaml.Node) quill.Position {
	if line > 0 {
		return quill.Position{Line: line, Column: column}
	}
	return quill.Position{Line: node.Line, Column: node.Column}
}

var binaryOps = map[string]quill.Operator{
	"+": quill.OpAdd, "-": quill.OpSub, "*": quill.OpMul, "/": quill.OpDiv,
	"%": quill.OpMod, "^": quill.OpPow, "..": quill.OpConcat,
	"and": quill.OpAnd, "or": quill.OpOr,
	"=": quill.OpEq, "<>": quill.OpNe, "<": quill.OpLt, "<=": quill.OpLe, ">": quill.OpGt, ">=": quill.OpGe,
}

var unaryOps = map[string]quill.Operator{
	"-": quill.OpNeg, "neg": quill.OpNeg, "not": quill.OpNot,
}

func (d *decoder) mapping(node *yaml.Node) (nodeYAML, error) {
	var raw nodeYAML
	if node.Kind != yaml.MappingNode {
		return raw, d.errorf(node, "expected a mapping")
	}
	if err := node.Decode(&raw); err != nil {
		return raw, d.errorf(node, "%v", err)
	}
	if raw.Kind == "" {
		return raw, d.errorf(node, "node without a kind")
	}
	return raw, nil
}

func (d *decoder) statements(nodes []yaml.Node) ([]quill.Statement, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]quill.Statement, 0, len(nodes))
	for i := range nodes {
		stmt, err := d.statement(&nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (d *decoder) statement(node *yaml.Node) (quill.Statement, error) {
	raw, err := d.mapping(node)
	if err != nil {
		return nil, err
	}
	pos := position(raw.Line, raw.Column, node)

	switch raw.Kind {
	case "assign":
		value, err := d.required(node, raw.Value, "value")
		if err != nil {
			return nil, err
		}
		return &quill.AssignVariableStmt{Name: raw.Name, Value: value, Loc: pos}, nil
	case "set_static":
		value, err := d.required(node, raw.Value, "value")
		if err != nil {
			return nil, err
		}
		return &quill.AssignStaticStmt{Class: raw.Class, Name: raw.Name, Value: value, Loc: pos}, nil
	case "set_property":
		target, err := d.required(node, raw.Target, "target")
		if err != nil {
			return nil, err
		}
		value, err := d.required(node, raw.Value, "value")
		if err != nil {
			return nil, err
		}
		return &quill.AssignPropertyStmt{Target: target, Name: raw.Name, Value: value, Loc: pos}, nil
	case "set_index":
		target, err := d.required(node, raw.Target, "target")
		if err != nil {
			return nil, err
		}
		index, err := d.required(node, raw.Index, "index")
		if err != nil {
			return nil, err
		}
		value, err := d.required(node, raw.Value, "value")
		if err != nil {
			return nil, err
		}
		return &quill.AssignIndexStmt{Target: target, Index: index, Value: value, Loc: pos}, nil
	case "var":
		stmt := &quill.VarStmt{Name: raw.Name, Type: quill.ParseType(raw.Type), Loc: pos}
		if raw.Value != nil {
			if stmt.Value, err = d.expression(raw.Value); err != nil {
				return nil, err
			}
		}
		return stmt, nil
	case "call":
		call, err := d.call(node, raw)
		if err != nil {
			return nil, err
		}
		return &quill.CallStmt{Call: call, Loc: pos}, nil
	case "if":
		stmt := &quill.IfStmt{Loc: pos}
		if len(raw.Clauses) == 0 {
			return nil, d.errorf(node, "if without clauses")
		}
		for _, clause := range raw.Clauses {
			cond, err := d.required(node, clause.Condition, "condition")
			if err != nil {
				return nil, err
			}
			body, err := d.statements(clause.Body)
			if err != nil {
				return nil, err
			}
			stmt.Clauses = append(stmt.Clauses, quill.IfClause{Condition: cond, Body: body})
		}
		if stmt.Else, err = d.statements(raw.Else); err != nil {
			return nil, err
		}
		return stmt, nil
	case "while":
		cond, err := d.required(node, raw.Condition, "condition")
		if err != nil {
			return nil, err
		}
		body, err := d.statements(raw.Body)
		if err != nil {
			return nil, err
		}
		return &quill.WhileStmt{Condition: cond, Body: body, Loc: pos}, nil
	case "repeat":
		until, err := d.required(node, raw.Until, "until")
		if err != nil {
			return nil, err
		}
		body, err := d.statements(raw.Body)
		if err != nil {
			return nil, err
		}
		return &quill.RepeatStmt{Body: body, Until: until, Loc: pos}, nil
	case "for":
		if raw.Var == "" {
			return nil, d.errorf(node, "for without var")
		}
		stmt := &quill.ForStmt{Var: raw.Var, Loc: pos}
		if stmt.Start, err = d.required(node, raw.Start, "start"); err != nil {
			return nil, err
		}
		if stmt.Limit, err = d.required(node, raw.Limit, "limit"); err != nil {
			return nil, err
		}
		if raw.Step != nil {
			if stmt.Step, err = d.expression(raw.Step); err != nil {
				return nil, err
			}
		}
		if stmt.Body, err = d.statements(raw.Body); err != nil {
			return nil, err
		}
		return stmt, nil
	case "break":
		return &quill.BreakStmt{Loc: pos}, nil
	case "continue":
		return &quill.ContinueStmt{Loc: pos}, nil
	case "return":
		stmt := &quill.ReturnStmt{Loc: pos}
		if raw.Value != nil {
			if stmt.Value, err = d.expression(raw.Value); err != nil {
				return nil, err
			}
		}
		return stmt, nil
	case "throw":
		value, err := d.required(node, raw.Value, "value")
		if err != nil {
			return nil, err
		}
		return &quill.ThrowStmt{Value: value, Loc: pos}, nil
	case "try":
		stmt := &quill.TryStmt{CatchVar: raw.CatchVar, Loc: pos}
		if raw.CatchType != "" {
			stmt.CatchType = quill.ParseType(raw.CatchType)
		}
		if stmt.Body, err = d.statements(raw.Body); err != nil {
			return nil, err
		}
		if stmt.Catch, err = d.statements(raw.Catch); err != nil {
			return nil, err
		}
		return stmt, nil
	default:
		return nil, d.errorf(node, "unknown statement kind %q", raw.Kind)
	}
}

func (d *decoder) required(parent, node *yaml.Node, field string) (quill.Expression, error) {
	if node == nil {
		return nil, d.errorf(parent, "missing %s", field)
	}
	return d.expression(node)
}

// expression decodes an expression node. A bare scalar is a constant whose
// type follows the YAML tag.
func (d *decoder) expression(node *yaml.Node) (quill.Expression, error) {
	if node.Kind == yaml.ScalarNode {
		val, err := d.scalar(node, "")
		if err != nil {
			return nil, err
		}
		return &quill.ConstantExpr{Value: val, Loc: position(0, 0, node)}, nil
	}

	raw, err := d.mapping(node)
	if err != nil {
		return nil, err
	}
	pos := position(raw.Line, raw.Column, node)

	switch raw.Kind {
	case "const":
		if raw.Value == nil {
			return &quill.ConstantExpr{Value: quill.NewNull(), Loc: pos}, nil
		}
		val, err := d.scalar(raw.Value, raw.Type)
		if err != nil {
			return nil, err
		}
		return &quill.ConstantExpr{Value: val, Loc: pos}, nil
	case "arg":
		return &quill.ArgumentExpr{Name: raw.Name, Loc: pos}, nil
	case "var":
		return &quill.VariableExpr{Name: raw.Name, Loc: pos}, nil
	case "this":
		return &quill.VariableExpr{Name: "this", Loc: pos}, nil
	case "static":
		return &quill.StaticPropertyExpr{Class: raw.Class, Name: raw.Name, Loc: pos}, nil
	case "property":
		target, err := d.required(node, raw.Target, "target")
		if err != nil {
			return nil, err
		}
		return &quill.PropertyExpr{Target: target, Name: raw.Name, Loc: pos}, nil
	case "new":
		args, err := d.expressions(raw.Args)
		if err != nil {
			return nil, err
		}
		return &quill.NewObjectExpr{Class: raw.Class, Args: args, Loc: pos}, nil
	case "new_array":
		size, err := d.required(node, raw.Size, "size")
		if err != nil {
			return nil, err
		}
		return &quill.NewArrayExpr{Elem: quill.ParseType(raw.Type), Size: size, Loc: pos}, nil
	case "index":
		target, err := d.required(node, raw.Target, "target")
		if err != nil {
			return nil, err
		}
		index, err := d.required(node, raw.Index, "index")
		if err != nil {
			return nil, err
		}
		return &quill.IndexExpr{Target: target, Index: index, Loc: pos}, nil
	case "length":
		target, err := d.required(node, raw.Target, "target")
		if err != nil {
			return nil, err
		}
		return &quill.LengthExpr{Target: target, Loc: pos}, nil
	case "cast":
		value, err := d.required(node, raw.Value, "value")
		if err != nil {
			return nil, err
		}
		return &quill.CastExpr{Type: quill.ParseType(raw.Type), Value: value, Loc: pos}, nil
	case "unary":
		op, ok := unaryOps[raw.Op]
		if !ok {
			return nil, d.errorf(node, "unknown unary operator %q", raw.Op)
		}
		operand, err := d.required(node, raw.Operand, "operand")
		if err != nil {
			return nil, err
		}
		return &quill.UnaryExpr{Op: op, Operand: operand, Loc: pos}, nil
	case "binary":
		op, ok := binaryOps[raw.Op]
		if !ok {
			return nil, d.errorf(node, "unknown binary operator %q", raw.Op)
		}
		left, err := d.required(node, raw.Left, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.required(node, raw.Right, "right")
		if err != nil {
			return nil, err
		}
		return &quill.BinaryExpr{Op: op, Left: left, Right: right, Loc: pos}, nil
	case "call":
		return d.call(node, raw)
	default:
		return nil, d.errorf(node, "unknown expression kind %q", raw.Kind)
	}
}

func (d *decoder) call(node *yaml.Node, raw nodeYAML) (*quill.CallExpr, error) {
	if raw.Method == "" {
		return nil, d.errorf(node, "call without method")
	}
	call := &quill.CallExpr{Class: raw.Class, Method: raw.Method, Super: raw.Super, Loc: position(raw.Line, raw.Column, node)}
	if raw.Receiver != nil {
		receiver, err := d.expression(raw.Receiver)
		if err != nil {
			return nil, err
		}
		call.Receiver = receiver
	}
	args, err := d.expressions(raw.Args)
	if err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

func (d *decoder) expressions(nodes []yaml.Node) ([]quill.Expression, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]quill.Expression, 0, len(nodes))
	for i := range nodes {
		expr, err := d.expression(&nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

// scalar converts a YAML scalar to a value. An empty typeName infers the
// type from the YAML tag.
func (d *decoder) scalar(node *yaml.Node, typeName string) (quill.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return quill.NewNull(), d.errorf(node, "expected a scalar")
	}
	text := node.Value
	if typeName == "" {
		switch node.Tag {
		case "!!int":
			typeName = quill.TypeNameInteger
		case "!!float":
			typeName = quill.TypeNameFloat
		case "!!bool":
			typeName = quill.TypeNameBoolean
		case "!!null":
			return quill.NewNull(), nil
		default:
			typeName = quill.TypeNameString
		}
	}

	switch typeName {
	case quill.TypeNameInteger:
		n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
		if err != nil {
			return quill.NewNull(), d.errorf(node, "invalid Integer %q", text)
		}
		return quill.NewInt(n), nil
	case quill.TypeNameFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return quill.NewNull(), d.errorf(node, "invalid Float %q", text)
		}
		return quill.NewFloat(f), nil
	case quill.TypeNameBoolean:
		var b bool
		if err := node.Decode(&b); err != nil {
			return quill.NewNull(), d.errorf(node, "invalid Boolean %q", text)
		}
		return quill.NewBool(b), nil
	case quill.TypeNameInstant:
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return quill.NewNull(), d.errorf(node, "invalid Instant %q", text)
		}
		return quill.NewInstant(t), nil
	case quill.TypeNameString:
		return quill.NewString(text), nil
	default:
		if node.Tag == "!!null" {
			return quill.NewNull(), nil
		}
		return quill.NewNull(), d.errorf(node, "cannot write a %s literal", typeName)
	}
}
