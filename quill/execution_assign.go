package quill

func (exec *Execution) execAssignStatic(stmt *AssignStaticStmt, sc *scope) error {
	val, err := exec.evalExpression(stmt.Value, sc)
	if err != nil {
		return err
	}
	if !exec.types.SetStatic(stmt.Class, stmt.Name, val) {
		return userFault(CodePropertyNotFound, "property not found: %s.%s", stmt.Class, stmt.Name)
	}
	return nil
}

// execAssignProperty writes the first instance on the owner chain, starting
// at the evaluated target, that exposes the property.
func (exec *Execution) execAssignProperty(stmt *AssignPropertyStmt, sc *scope) error {
	val, err := exec.evalExpression(stmt.Value, sc)
	if err != nil {
		return err
	}
	targetVal, err := exec.evalExpression(stmt.Target, sc)
	if err != nil {
		return err
	}
	target, ok := targetVal.Object()
	if !ok {
		if targetVal.IsNull() {
			return userFault(CodeNullReference, "null reference assigning property %s", stmt.Name)
		}
		return userFault(CodeInvalidOperand, "cannot assign property %s on %s", stmt.Name, targetVal.Kind())
	}
	for obj := target; obj != nil; obj = obj.Owner {
		if obj.Set(stmt.Name, val) {
			return nil
		}
	}
	return userFault(CodePropertyNotFound, "property not found: %s.%s", target.Class.Name, stmt.Name)
}

func (exec *Execution) execAssignIndex(stmt *AssignIndexStmt, sc *scope) error {
	val, err := exec.evalExpression(stmt.Value, sc)
	if err != nil {
		return err
	}
	targetVal, err := exec.evalExpression(stmt.Target, sc)
	if err != nil {
		return err
	}
	idxVal, err := exec.evalExpression(stmt.Index, sc)
	if err != nil {
		return err
	}
	arr, ok := targetVal.Array()
	if !ok {
		return userFault(CodeNotAnArray, "cannot index %s", targetVal.Kind())
	}
	idx, err := resolveIndex(arr, idxVal)
	if err != nil {
		return err
	}
	arr.SetAt(idx, val)
	return nil
}

// resolveIndex truncates float indexes toward zero and counts negative
// indexes from the end.
func resolveIndex(arr *Array, idxVal Value) (int, error) {
	var idx int64
	switch idxVal.Kind() {
	case KindInt:
		idx = idxVal.Int()
	case KindFloat:
		idx = int64(idxVal.Float())
	default:
		return 0, userFault(CodeInvalidOperand, "array index must be numeric, got %s", idxVal.Kind())
	}
	length := int64(arr.Len())
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, userFault(CodeIndexOutOfRange, "index out of range: %s (length %d)", idxVal, length)
	}
	return int(idx), nil
}
