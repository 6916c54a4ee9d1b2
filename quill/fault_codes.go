package quill

// FaultCode identifies a built-in user-level fault. Codes are stable so hosts
// and catch blocks can branch on them.
type FaultCode struct {
	Code        int
	Name        string
	Description string
}

var (
	CodeIncompatibleTypes = FaultCode{1001, "incompatible-types", "incompatible types"}
	CodeIndexOutOfRange   = FaultCode{1002, "index-out-of-range", "index out of range"}
	CodePropertyNotFound  = FaultCode{1003, "property-not-found", "property not found"}
	CodeTypeNotDefined    = FaultCode{1004, "type-not-defined", "type not defined"}
	CodeUnsupportedCast   = FaultCode{1005, "unsupported-cast", "unsupported cast"}
	CodeDivisionByZero    = FaultCode{1006, "division-by-zero", "division by zero"}
	CodeNotAnArray        = FaultCode{1007, "not-an-array", "value is not an array"}
	CodeExternMissing     = FaultCode{1008, "extern-not-registered", "extern method not registered"}
	CodeNativeFailed      = FaultCode{1009, "native-call-failed", "native call failed"}
	CodeRecursionLimit    = FaultCode{1010, "recursion-limit", "maximum recursion depth exceeded"}
	CodeInvalidThrow      = FaultCode{1011, "invalid-throw", "thrown value is not an exception"}
	CodeInvalidOperand    = FaultCode{1012, "invalid-operand", "invalid operand"}
	CodeMethodNotFound    = FaultCode{1013, "method-not-found", "method not found"}
	CodeNullReference     = FaultCode{1014, "null-reference", "null reference"}
)
