package quill

import "fmt"

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Column > 0 {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("line %d", p.Line)
}

type Node interface {
	Pos() Position
}

// Expression is sealed: only the node types in this package implement it.
type Expression interface {
	Node
	exprNode()
}

type Operator string

const (
	OpAdd    Operator = "+"
	OpSub    Operator = "-"
	OpMul    Operator = "*"
	OpDiv    Operator = "/"
	OpMod    Operator = "%"
	OpPow    Operator = "^"
	OpConcat Operator = ".."
	OpAnd    Operator = "and"
	OpOr     Operator = "or"
	OpEq     Operator = "="
	OpNe     Operator = "<>"
	OpLt     Operator = "<"
	OpLe     Operator = "<="
	OpGt     Operator = ">"
	OpGe     Operator = ">="
	OpNeg    Operator = "neg"
	OpNot    Operator = "not"
)

type ConstantExpr struct {
	Value Value
	Loc   Position
}

func (e *ConstantExpr) exprNode()     {}
func (e *ConstantExpr) Pos() Position { return e.Loc }

type ArgumentExpr struct {
	Name string
	Loc  Position
}

func (e *ArgumentExpr) exprNode()     {}
func (e *ArgumentExpr) Pos() Position { return e.Loc }

// VariableExpr reads a local binding, including `this` and `super`.
type VariableExpr struct {
	Name string
	Loc  Position
}

func (e *VariableExpr) exprNode()     {}
func (e *VariableExpr) Pos() Position { return e.Loc }

type StaticPropertyExpr struct {
	Class string
	Name  string
	Loc   Position
}

func (e *StaticPropertyExpr) exprNode()     {}
func (e *StaticPropertyExpr) Pos() Position { return e.Loc }

type PropertyExpr struct {
	Target Expression
	Name   string
	Loc    Position
}

func (e *PropertyExpr) exprNode()     {}
func (e *PropertyExpr) Pos() Position { return e.Loc }

type NewObjectExpr struct {
	Class string
	Args  []Expression
	Loc   Position
}

func (e *NewObjectExpr) exprNode()     {}
func (e *NewObjectExpr) Pos() Position { return e.Loc }

type NewArrayExpr struct {
	Elem *Type
	Size Expression
	Loc  Position
}

func (e *NewArrayExpr) exprNode()     {}
func (e *NewArrayExpr) Pos() Position { return e.Loc }

type IndexExpr struct {
	Target Expression
	Index  Expression
	Loc    Position
}

func (e *IndexExpr) exprNode()     {}
func (e *IndexExpr) Pos() Position { return e.Loc }

type LengthExpr struct {
	Target Expression
	Loc    Position
}

func (e *LengthExpr) exprNode()     {}
func (e *LengthExpr) Pos() Position { return e.Loc }

type CastExpr struct {
	Type  *Type
	Value Expression
	Loc   Position
}

func (e *CastExpr) exprNode()     {}
func (e *CastExpr) Pos() Position { return e.Loc }

type UnaryExpr struct {
	Op      Operator
	Operand Expression
	Loc     Position
}

func (e *UnaryExpr) exprNode()     {}
func (e *UnaryExpr) Pos() Position { return e.Loc }

type BinaryExpr struct {
	Op    Operator
	Left  Expression
	Right Expression
	Loc   Position
}

func (e *BinaryExpr) exprNode()     {}
func (e *BinaryExpr) Pos() Position { return e.Loc }

// CallExpr invokes a method. With a Receiver the call is virtual on the
// receiver's class. Without one, Class names the class the front-end resolved
// the method on (empty means the calling method's class) and the receiver is
// the caller's `this` for instance methods. Super starts resolution at the
// parent of the calling method's class.
type CallExpr struct {
	Receiver Expression
	Class    string
	Method   string
	Args     []Expression
	Super    bool
	Loc      Position
}

func (e *CallExpr) exprNode()     {}
func (e *CallExpr) Pos() Position { return e.Loc }
