package quill

func (exec *Execution) evalCondition(expr Expression, sc *scope) (bool, error) {
	val, err := exec.evalExpression(expr, sc)
	if err != nil {
		return false, err
	}
	if val.Kind() != KindBool {
		return false, userFault(CodeIncompatibleTypes, "incompatible types: condition must be Boolean, got %s", val.Kind())
	}
	return val.Bool(), nil
}

func (exec *Execution) execIf(stmt *IfStmt, sc *scope) (Flow, Value, error) {
	for _, clause := range stmt.Clauses {
		ok, err := exec.evalCondition(clause.Condition, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if ok {
			return exec.execStatements(clause.Body, sc)
		}
	}
	if stmt.Else != nil {
		return exec.execStatements(stmt.Else, sc)
	}
	return FlowCompleted, NewNull(), nil
}

// loopOutcome folds a body result into the loop: Break ends the loop as
// Completed, Continue and Completed keep iterating, anything else leaves.
func loopOutcome(flow Flow) (stop bool, result Flow) {
	switch flow {
	case FlowBreak:
		return true, FlowCompleted
	case FlowCompleted, FlowContinue:
		return false, FlowCompleted
	default:
		return true, flow
	}
}

func (exec *Execution) execWhile(stmt *WhileStmt, sc *scope) (Flow, Value, error) {
	for {
		if err := exec.tick(); err != nil {
			return FlowCompleted, NewNull(), err
		}
		ok, err := exec.evalCondition(stmt.Condition, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if !ok {
			return FlowCompleted, NewNull(), nil
		}
		flow, val, err := exec.execStatements(stmt.Body, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if stop, result := loopOutcome(flow); stop {
			return result, val, nil
		}
	}
}

func (exec *Execution) execRepeat(stmt *RepeatStmt, sc *scope) (Flow, Value, error) {
	for {
		if err := exec.tick(); err != nil {
			return FlowCompleted, NewNull(), err
		}
		flow, val, err := exec.execStatements(stmt.Body, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if stop, result := loopOutcome(flow); stop {
			return result, val, nil
		}
		done, err := exec.evalCondition(stmt.Until, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if done {
			return FlowCompleted, NewNull(), nil
		}
	}
}

// execFor evaluates start, limit and step once. The sign of step picks the
// limit comparison for the whole loop.
func (exec *Execution) execFor(stmt *ForStmt, sc *scope) (Flow, Value, error) {
	start, err := exec.evalExpression(stmt.Start, sc)
	if err != nil {
		return FlowCompleted, NewNull(), err
	}
	limit, err := exec.evalExpression(stmt.Limit, sc)
	if err != nil {
		return FlowCompleted, NewNull(), err
	}
	step := NewInt(1)
	if stmt.Step != nil {
		step, err = exec.evalExpression(stmt.Step, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
	}
	for _, v := range []Value{start, limit, step} {
		if !v.IsNumeric() {
			return FlowCompleted, NewNull(), userFault(CodeInvalidOperand, "for loop bounds must be numeric, got %s", v.Kind())
		}
	}

	cmp := OpLe
	if step.Float() < 0 {
		cmp = OpGe
	}

	sc.env.Assign(stmt.Var, start)
	for {
		if err := exec.tick(); err != nil {
			return FlowCompleted, NewNull(), err
		}
		current, _ := sc.env.Get(stmt.Var)
		cont, err := compareValues(cmp, current, limit)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if !cont.Bool() {
			return FlowCompleted, NewNull(), nil
		}
		flow, val, err := exec.execStatements(stmt.Body, sc)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if stop, result := loopOutcome(flow); stop {
			return result, val, nil
		}
		current, _ = sc.env.Get(stmt.Var)
		next, err := arithmetic(OpAdd, current, step)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		sc.env.Assign(stmt.Var, next)
	}
}
