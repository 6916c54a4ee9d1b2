package quill

const (
	messageProperty = "message"
	codeProperty    = "code"
)

// execThrow raises the thrown exception's message as a user fault and carries
// its remaining properties in the fault's bag.
func (exec *Execution) execThrow(stmt *ThrowStmt, sc *scope) error {
	val, err := exec.evalExpression(stmt.Value, sc)
	if err != nil {
		return err
	}
	obj, ok := val.Object()
	if !ok || !exec.types.IsKindOf(obj.Class.Name, ExceptionClass) {
		return userFault(CodeInvalidThrow, "cannot throw %s: not an %s", describeValue(val), ExceptionClass)
	}
	message, ok := obj.Get(messageProperty)
	if !ok {
		return userFault(CodeInvalidThrow, "cannot throw %s: no %s property", obj.Class.Name, messageProperty)
	}

	fault := &Fault{Kind: FaultUser, Message: message.String(), Props: make(map[string]Value)}
	for _, name := range obj.PropertyNames() {
		if name == messageProperty {
			continue
		}
		prop, _ := obj.Get(name)
		fault.Props[name] = prop
	}
	if code, ok := fault.Props[codeProperty]; ok && code.Kind() == KindInt {
		fault.Code = int(code.Int())
		fault.HasCode = true
	}
	return fault
}

// execTry catches user faults. Internal faults and host signals always
// propagate.
func (exec *Execution) execTry(stmt *TryStmt, sc *scope) (Flow, Value, error) {
	flow, val, err := exec.execStatements(stmt.Body, sc)
	if err == nil {
		return flow, val, nil
	}
	fault, ok := err.(*Fault)
	if !ok || fault.Kind != FaultUser {
		return FlowCompleted, NewNull(), err
	}

	if stmt.CatchVar != "" {
		caught, err := exec.rehydrate(fault, stmt.CatchType)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		sc.env.Define(stmt.CatchVar, NewObjectValue(caught))
	}
	return exec.execStatements(stmt.Catch, sc)
}

// rehydrate builds the catch variable's instance from a fault without running
// a constructor.
func (exec *Execution) rehydrate(fault *Fault, catchType *Type) (*Object, error) {
	typeName := ExceptionClass
	if catchType != nil {
		typeName = catchType.Name
	}
	class, ok := exec.types.SearchClass(typeName)
	if !ok {
		return nil, userFault(CodeTypeNotDefined, "type not defined: %s", typeName)
	}
	obj := NewObject(class, nil)
	obj.Set(messageProperty, NewString(fault.Message))
	for name, val := range fault.Props {
		if name == messageProperty {
			continue
		}
		obj.Set(name, val)
	}
	if _, inBag := fault.Props[codeProperty]; !inBag && fault.HasCode {
		obj.Set(codeProperty, NewInt(int64(fault.Code)))
	}
	return obj, nil
}

func describeValue(val Value) string {
	if obj, ok := val.Object(); ok {
		return obj.Class.Name
	}
	return val.Kind().String()
}
