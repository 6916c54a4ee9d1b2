package quill

import "math"

func (exec *Execution) evalExpression(expr Expression, sc *scope) (Value, error) {
	switch e := expr.(type) {
	case *ConstantExpr:
		return e.Value, nil
	case *ArgumentExpr:
		return exec.lookupBinding(e.Name, "argument", sc)
	case *VariableExpr:
		return exec.lookupBinding(e.Name, "variable", sc)
	case *StaticPropertyExpr:
		val, ok := exec.types.Static(e.Class, e.Name)
		if !ok {
			return NewNull(), userFault(CodePropertyNotFound, "property not found: %s.%s", e.Class, e.Name)
		}
		return val, nil
	case *PropertyExpr:
		return exec.evalPropertyExpr(e, sc)
	case *NewObjectExpr:
		return exec.evalNewObjectExpr(e, sc)
	case *NewArrayExpr:
		return exec.evalNewArrayExpr(e, sc)
	case *IndexExpr:
		return exec.evalIndexExpr(e, sc)
	case *LengthExpr:
		target, err := exec.evalExpression(e.Target, sc)
		if err != nil {
			return NewNull(), err
		}
		arr, ok := target.Array()
		if !ok {
			return NewNull(), userFault(CodeNotAnArray, "length of %s", target.Kind())
		}
		return NewInt(int64(arr.Len())), nil
	case *CastExpr:
		val, err := exec.evalExpression(e.Value, sc)
		if err != nil {
			return NewNull(), err
		}
		cast, ok := exec.types.CastTo(e.Type, val)
		if !ok {
			return NewNull(), userFault(CodeUnsupportedCast, "unsupported cast from %s to %s", describeValue(val), e.Type)
		}
		return cast, nil
	case *UnaryExpr:
		return exec.evalUnaryExpr(e, sc)
	case *BinaryExpr:
		return exec.evalBinaryExpr(e, sc)
	case *CallExpr:
		return exec.evalCallExpr(e, sc)
	default:
		return NewNull(), internalFault("unsupported expression %T", expr)
	}
}

// lookupBinding reads the activation record. The front-end guarantees every
// reference is bound, so a miss is an internal fault.
func (exec *Execution) lookupBinding(name, what string, sc *scope) (Value, error) {
	val, ok := sc.env.Get(name)
	if !ok {
		return NewNull(), internalFault("unbound %s %s in %s", what, name, sc.method.FullName())
	}
	return val, nil
}

func (exec *Execution) evalPropertyExpr(expr *PropertyExpr, sc *scope) (Value, error) {
	target, err := exec.evalExpression(expr.Target, sc)
	if err != nil {
		return NewNull(), err
	}
	obj, ok := target.Object()
	if !ok {
		if target.IsNull() {
			return NewNull(), userFault(CodeNullReference, "null reference reading property %s", expr.Name)
		}
		return NewNull(), userFault(CodeInvalidOperand, "cannot read property %s of %s", expr.Name, target.Kind())
	}
	val, ok := obj.Get(expr.Name)
	if !ok {
		return NewNull(), userFault(CodePropertyNotFound, "property not found: %s.%s", obj.Class.Name, expr.Name)
	}
	return val, nil
}

func (exec *Execution) evalNewObjectExpr(expr *NewObjectExpr, sc *scope) (Value, error) {
	class, ok := exec.types.SearchClass(expr.Class)
	if !ok {
		return NewNull(), userFault(CodeTypeNotDefined, "type not defined: %s", expr.Class)
	}
	args, err := exec.evalArgs(expr.Args, sc)
	if err != nil {
		return NewNull(), err
	}
	obj, err := exec.construct(class, enclosingInstance(class, sc.selfObject()), args)
	if err != nil {
		return NewNull(), err
	}
	return NewObjectValue(obj), nil
}

// enclosingInstance finds the owner for a new nested-class instance: the
// nearest instance on the creator's owner chain whose class encloses class.
func enclosingInstance(class *Class, creator *Object) *Object {
	for obj := creator; obj != nil; obj = obj.Owner {
		if class.IsNestedIn(obj.Class) {
			return obj
		}
	}
	return nil
}

func (exec *Execution) evalNewArrayExpr(expr *NewArrayExpr, sc *scope) (Value, error) {
	size, err := exec.evalExpression(expr.Size, sc)
	if err != nil {
		return NewNull(), err
	}
	n, err := exec.arraySize(size)
	if err != nil {
		return NewNull(), err
	}
	return NewArrayValue(NewArray(expr.Elem, n)), nil
}

// arraySize validates a requested length against the engine's maximum.
// Float sizes are range-checked before they are truncated.
func (exec *Execution) arraySize(size Value) (int, error) {
	limit := int64(exec.engine.config.MaxArrayLength)
	var n int64
	switch size.Kind() {
	case KindInt:
		n = size.Int()
	case KindFloat:
		f := size.Float()
		switch {
		case math.IsNaN(f):
			return 0, userFault(CodeInvalidOperand, "array size must be a number, got NaN")
		case f <= -1:
			return 0, userFault(CodeIndexOutOfRange, "index out of range: negative array size %s", size)
		case f >= float64(limit)+1:
			return 0, userFault(CodeIndexOutOfRange, "index out of range: array size %s exceeds the maximum %d", size, limit)
		}
		n = int64(f)
	default:
		return 0, userFault(CodeInvalidOperand, "array size must be numeric, got %s", size.Kind())
	}
	if n < 0 {
		return 0, userFault(CodeIndexOutOfRange, "index out of range: negative array size %d", n)
	}
	if n > limit {
		return 0, userFault(CodeIndexOutOfRange, "index out of range: array size %d exceeds the maximum %d", n, limit)
	}
	return int(n), nil
}

func (exec *Execution) evalIndexExpr(expr *IndexExpr, sc *scope) (Value, error) {
	target, err := exec.evalExpression(expr.Target, sc)
	if err != nil {
		return NewNull(), err
	}
	idxVal, err := exec.evalExpression(expr.Index, sc)
	if err != nil {
		return NewNull(), err
	}
	arr, ok := target.Array()
	if !ok {
		return NewNull(), userFault(CodeNotAnArray, "cannot index %s", target.Kind())
	}
	idx, err := resolveIndex(arr, idxVal)
	if err != nil {
		return NewNull(), err
	}
	return arr.At(idx), nil
}

func (exec *Execution) evalUnaryExpr(expr *UnaryExpr, sc *scope) (Value, error) {
	operand, err := exec.evalExpression(expr.Operand, sc)
	if err != nil {
		return NewNull(), err
	}
	switch expr.Op {
	case OpNeg:
		switch operand.Kind() {
		case KindInt:
			return NewInt(-operand.Int()), nil
		case KindFloat:
			return NewFloat(-operand.Float()), nil
		}
		return NewNull(), userFault(CodeIncompatibleTypes, "incompatible types: -%s", operand.Kind())
	case OpNot:
		if operand.Kind() != KindBool {
			return NewNull(), userFault(CodeIncompatibleTypes, "incompatible types: not %s", operand.Kind())
		}
		return NewBool(!operand.Bool()), nil
	default:
		return NewNull(), internalFault("unknown unary operator %q", expr.Op)
	}
}

// evalBinaryExpr evaluates both operands, left first, for every operator.
func (exec *Execution) evalBinaryExpr(expr *BinaryExpr, sc *scope) (Value, error) {
	left, err := exec.evalExpression(expr.Left, sc)
	if err != nil {
		return NewNull(), err
	}
	right, err := exec.evalExpression(expr.Right, sc)
	if err != nil {
		return NewNull(), err
	}

	switch expr.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return arithmetic(expr.Op, left, right)
	case OpConcat:
		ls, err := exec.stringify(left)
		if err != nil {
			return NewNull(), err
		}
		rs, err := exec.stringify(right)
		if err != nil {
			return NewNull(), err
		}
		return NewString(ls + rs), nil
	case OpAnd, OpOr:
		if left.Kind() != KindBool || right.Kind() != KindBool {
			return NewNull(), userFault(CodeIncompatibleTypes, "incompatible types: %s %s %s", left.Kind(), expr.Op, right.Kind())
		}
		if expr.Op == OpAnd {
			return NewBool(left.Bool() && right.Bool()), nil
		}
		return NewBool(left.Bool() || right.Bool()), nil
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return compareValues(expr.Op, left, right)
	default:
		return NewNull(), internalFault("unknown binary operator %q", expr.Op)
	}
}

func (exec *Execution) stringify(val Value) (string, error) {
	if val.Kind() == KindString {
		return val.String(), nil
	}
	cast, ok := exec.types.CastTo(TypeString, val)
	if !ok {
		return "", userFault(CodeUnsupportedCast, "unsupported cast from %s to %s", describeValue(val), TypeNameString)
	}
	return cast.String(), nil
}

func (exec *Execution) evalArgs(exprs []Expression, sc *scope) ([]Value, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	args := make([]Value, len(exprs))
	for i, expr := range exprs {
		val, err := exec.evalExpression(expr, sc)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return args, nil
}
