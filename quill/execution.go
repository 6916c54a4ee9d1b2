package quill

import (
	"context"
	"fmt"
)

// Flow is the control result of running a statement or a statement list.
type Flow int

const (
	FlowCompleted Flow = iota
	FlowReturnDefault
	FlowReturnValue
	FlowBreak
	FlowContinue
)

func (f Flow) String() string {
	switch f {
	case FlowCompleted:
		return "completed"
	case FlowReturnDefault:
		return "return-default"
	case FlowReturnValue:
		return "return-value"
	case FlowBreak:
		return "break"
	case FlowContinue:
		return "continue"
	default:
		return fmt.Sprintf("flow(%d)", int(f))
	}
}

// Execution is the state of one Engine.Execute call.
type Execution struct {
	engine *Engine
	types  Types
	ctx    context.Context
	steps  int
	depth  int
}

// scope is what a running method body sees: its descriptor, its receiver
// (null for static methods) and its activation record.
type scope struct {
	method *Method
	self   Value
	env    *Env
}

func (sc *scope) selfObject() *Object {
	obj, _ := sc.self.Object()
	return obj
}

// tick enforces the step quota and cancellation.
func (exec *Execution) tick() error {
	exec.steps++
	if quota := exec.engine.config.StepQuota; quota > 0 && exec.steps > quota {
		return fmt.Errorf("%w (%d)", errStepQuotaExceeded, quota)
	}
	if exec.ctx != nil {
		select {
		case <-exec.ctx.Done():
			return exec.ctx.Err()
		default:
		}
	}
	return nil
}

// step is the per-statement checkpoint: tick, then the statement hook.
func (exec *Execution) step(sc *scope, stmt Statement) error {
	if err := exec.tick(); err != nil {
		return err
	}
	if hook := exec.engine.hook; hook != nil {
		hook(sc.method, stmt, exec.types, sc.env)
	}
	return nil
}

func (exec *Execution) execStatements(stmts []Statement, sc *scope) (Flow, Value, error) {
	for _, stmt := range stmts {
		if err := exec.step(sc, stmt); err != nil {
			return FlowCompleted, NewNull(), err
		}
		flow, val, err := exec.execStatement(stmt, sc)
		if err != nil {
			return FlowCompleted, NewNull(), traceFault(err, sc.method, stmt.Pos())
		}
		if flow != FlowCompleted {
			return flow, val, nil
		}
	}
	return FlowCompleted, NewNull(), nil
}

func (exec *Execution) execStatement(stmt Statement, sc *scope) (Flow, Value, error) {
	switch s := stmt.(type) {
	case *AssignVariableStmt:
		val, err := exec.evalExpression(s.Value, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		sc.env.Assign(s.Name, val)
		return FlowCompleted, NewNull(), nil
	case *AssignStaticStmt:
		return FlowCompleted, NewNull(), exec.execAssignStatic(s, sc)
	case *AssignPropertyStmt:
		return FlowCompleted, NewNull(), exec.execAssignProperty(s, sc)
	case *AssignIndexStmt:
		return FlowCompleted, NewNull(), exec.execAssignIndex(s, sc)
	case *VarStmt:
		val := s.Type.Default()
		if s.Value != nil {
			var err error
			val, err = exec.evalExpression(s.Value, sc)
			if err != nil {
				return FlowCompleted, NewNull(), err
			}
		}
		sc.env.Define(s.Name, val)
		return FlowCompleted, NewNull(), nil
	case *CallStmt:
		_, err := exec.evalExpression(s.Call, sc)
		return FlowCompleted, NewNull(), err
	case *IfStmt:
		return exec.execIf(s, sc)
	case *WhileStmt:
		return exec.execWhile(s, sc)
	case *RepeatStmt:
		return exec.execRepeat(s, sc)
	case *ForStmt:
		return exec.execFor(s, sc)
	case *BreakStmt:
		return FlowBreak, NewNull(), nil
	case *ContinueStmt:
		return FlowContinue, NewNull(), nil
	case *ReturnStmt:
		if s.Value == nil {
			return FlowReturnDefault, NewNull(), nil
		}
		val, err := exec.evalExpression(s.Value, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		return FlowReturnValue, val, nil
	case *ThrowStmt:
		return FlowCompleted, NewNull(), exec.execThrow(s, sc)
	case *TryStmt:
		return exec.execTry(s, sc)
	default:
		return FlowCompleted, NewNull(), internalFault("unsupported statement %T", stmt)
	}
}
