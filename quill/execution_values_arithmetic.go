package quill

import (
	"math"
	"strings"
)

// arithmetic applies + - * / % ^. Two integers use integer operations;
// anything else is promoted to float. A float remainder is always 0.0 and
// integer power truncates the float power; both match the language's
// historical behaviour.
func arithmetic(op Operator, left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return NewNull(), userFault(CodeIncompatibleTypes, "incompatible types: %s %s %s", left.Kind(), op, right.Kind())
	}

	if left.Kind() == KindInt && right.Kind() == KindInt {
		a, b := left.Int(), right.Int()
		switch op {
		case OpAdd:
			return NewInt(a + b), nil
		case OpSub:
			return NewInt(a - b), nil
		case OpMul:
			return NewInt(a * b), nil
		case OpDiv:
			if b == 0 {
				return NewNull(), userFault(CodeDivisionByZero, "division by zero")
			}
			return NewInt(a / b), nil
		case OpMod:
			if b == 0 {
				return NewNull(), userFault(CodeDivisionByZero, "division by zero")
			}
			return NewInt(a % b), nil
		case OpPow:
			return NewInt(int64(math.Pow(float64(a), float64(b)))), nil
		}
		return NewNull(), internalFault("unknown arithmetic operator %q", op)
	}

	a, b := left.Float(), right.Float()
	switch op {
	case OpAdd:
		return NewFloat(a + b), nil
	case OpSub:
		return NewFloat(a - b), nil
	case OpMul:
		return NewFloat(a * b), nil
	case OpDiv:
		return NewFloat(a / b), nil
	case OpMod:
		return NewFloat(0), nil
	case OpPow:
		return NewFloat(math.Pow(a, b)), nil
	}
	return NewNull(), internalFault("unknown arithmetic operator %q", op)
}

func isReferenceKind(v Value) bool {
	switch v.Kind() {
	case KindNull, KindObject, KindArray:
		return true
	default:
		return false
	}
}

func isEqualityOp(op Operator) bool {
	return op == OpEq || op == OpNe
}

// compareValues applies a relational operator under the comparability
// classes: numeric, string and instant pairs are ordered; booleans and
// references (null, objects, arrays) only support = and <>.
func compareValues(op Operator, left, right Value) (Value, error) {
	incompatible := func() (Value, error) {
		return NewNull(), userFault(CodeIncompatibleTypes, "incompatible types: %s %s %s", left.Kind(), op, right.Kind())
	}

	switch {
	case left.IsNumeric() && right.IsNumeric():
		if left.Kind() == KindInt && right.Kind() == KindInt {
			a, b := left.Int(), right.Int()
			switch {
			case a < b:
				return orderedResult(op, -1)
			case a > b:
				return orderedResult(op, 1)
			default:
				return orderedResult(op, 0)
			}
		}
		diff := left.Float() - right.Float()
		switch {
		case diff < 0:
			return orderedResult(op, -1)
		case diff > 0:
			return orderedResult(op, 1)
		default:
			return orderedResult(op, 0)
		}
	case left.Kind() == KindString && right.Kind() == KindString:
		return orderedResult(op, strings.Compare(left.String(), right.String()))
	case left.Kind() == KindInstant && right.Kind() == KindInstant:
		return orderedResult(op, sign64(int64(left.Instant().Sub(right.Instant()))))
	case left.Kind() == KindBool && right.Kind() == KindBool:
		if !isEqualityOp(op) {
			return incompatible()
		}
		return equalityResult(op, left.Bool() == right.Bool()), nil
	case isReferenceKind(left) || isReferenceKind(right):
		if !isEqualityOp(op) {
			return incompatible()
		}
		return equalityResult(op, sameReference(left, right)), nil
	default:
		return incompatible()
	}
}

func sign64(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func orderedResult(op Operator, cmp int) (Value, error) {
	switch op {
	case OpEq:
		return NewBool(cmp == 0), nil
	case OpNe:
		return NewBool(cmp != 0), nil
	case OpLt:
		return NewBool(cmp < 0), nil
	case OpLe:
		return NewBool(cmp <= 0), nil
	case OpGt:
		return NewBool(cmp > 0), nil
	case OpGe:
		return NewBool(cmp >= 0), nil
	default:
		return NewNull(), internalFault("unknown comparison operator %q", op)
	}
}

func equalityResult(op Operator, equal bool) Value {
	if op == OpNe {
		return NewBool(!equal)
	}
	return NewBool(equal)
}

// sameReference is identity equality. A scalar is never identical to a
// reference value.
func sameReference(left, right Value) bool {
	if left.Kind() != right.Kind() {
		return false
	}
	switch left.Kind() {
	case KindNull:
		return true
	case KindObject, KindArray:
		return left.data == right.data
	default:
		return false
	}
}
