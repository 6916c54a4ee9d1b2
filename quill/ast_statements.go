package quill

// Statement is sealed: only the node types in this package implement it.
type Statement interface {
	Node
	stmtNode()
}

type AssignVariableStmt struct {
	Name  string
	Value Expression
	Loc   Position
}

func (s *AssignVariableStmt) stmtNode()     {}
func (s *AssignVariableStmt) Pos() Position { return s.Loc }

type AssignStaticStmt struct {
	Class string
	Name  string
	Value Expression
	Loc   Position
}

func (s *AssignStaticStmt) stmtNode()     {}
func (s *AssignStaticStmt) Pos() Position { return s.Loc }

type AssignPropertyStmt struct {
	Target Expression
	Name   string
	Value  Expression
	Loc    Position
}

func (s *AssignPropertyStmt) stmtNode()     {}
func (s *AssignPropertyStmt) Pos() Position { return s.Loc }

type AssignIndexStmt struct {
	Target Expression
	Index  Expression
	Value  Expression
	Loc    Position
}

func (s *AssignIndexStmt) stmtNode()     {}
func (s *AssignIndexStmt) Pos() Position { return s.Loc }

// VarStmt declares a local. Without a Value the binding starts at the type's
// default.
type VarStmt struct {
	Name  string
	Type  *Type
	Value Expression
	Loc   Position
}

func (s *VarStmt) stmtNode()     {}
func (s *VarStmt) Pos() Position { return s.Loc }

type CallStmt struct {
	Call Expression
	Loc  Position
}

func (s *CallStmt) stmtNode()     {}
func (s *CallStmt) Pos() Position { return s.Loc }

type IfClause struct {
	Condition Expression
	Body      []Statement
}

type IfStmt struct {
	Clauses []IfClause
	Else    []Statement
	Loc     Position
}

func (s *IfStmt) stmtNode()     {}
func (s *IfStmt) Pos() Position { return s.Loc }

type WhileStmt struct {
	Condition Expression
	Body      []Statement
	Loc       Position
}

func (s *WhileStmt) stmtNode()     {}
func (s *WhileStmt) Pos() Position { return s.Loc }

type RepeatStmt struct {
	Body  []Statement
	Until Expression
	Loc   Position
}

func (s *RepeatStmt) stmtNode()     {}
func (s *RepeatStmt) Pos() Position { return s.Loc }

// ForStmt is a numeric loop. A nil Step means 1.
type ForStmt struct {
	Var   string
	Start Expression
	Limit Expression
	Step  Expression
	Body  []Statement
	Loc   Position
}

func (s *ForStmt) stmtNode()     {}
func (s *ForStmt) Pos() Position { return s.Loc }

type BreakStmt struct {
	Loc Position
}

func (s *BreakStmt) stmtNode()     {}
func (s *BreakStmt) Pos() Position { return s.Loc }

type ContinueStmt struct {
	Loc Position
}

func (s *ContinueStmt) stmtNode()     {}
func (s *ContinueStmt) Pos() Position { return s.Loc }

type ReturnStmt struct {
	Value Expression
	Loc   Position
}

func (s *ReturnStmt) stmtNode()     {}
func (s *ReturnStmt) Pos() Position { return s.Loc }

type ThrowStmt struct {
	Value Expression
	Loc   Position
}

func (s *ThrowStmt) stmtNode()     {}
func (s *ThrowStmt) Pos() Position { return s.Loc }

// TryStmt catches every user fault raised by Body. When CatchVar is set the
// fault is rehydrated into an instance of CatchType bound to that name.
type TryStmt struct {
	Body      []Statement
	CatchVar  string
	CatchType *Type
	Catch     []Statement
	Loc       Position
}

func (s *TryStmt) stmtNode()     {}
func (s *TryStmt) Pos() Position { return s.Loc }

// WalkStatements visits every statement in stmts depth-first, including the
// bodies of compound statements, in source order.
func WalkStatements(stmts []Statement, visit func(Statement)) {
	for _, stmt := range stmts {
		visit(stmt)
		for _, body := range childBodies(stmt) {
			WalkStatements(body, visit)
		}
	}
}

func childBodies(stmt Statement) [][]Statement {
	switch s := stmt.(type) {
	case *IfStmt:
		bodies := make([][]Statement, 0, len(s.Clauses)+1)
		for _, clause := range s.Clauses {
			bodies = append(bodies, clause.Body)
		}
		return append(bodies, s.Else)
	case *WhileStmt:
		return [][]Statement{s.Body}
	case *RepeatStmt:
		return [][]Statement{s.Body}
	case *ForStmt:
		return [][]Statement{s.Body}
	case *TryStmt:
		return [][]Statement{s.Body, s.Catch}
	default:
		return nil
	}
}
