package quill

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// callMethod is the dispatcher: every method invocation, from the host or
// from script code, goes through it.
func (exec *Execution) callMethod(method *Method, receiver Value, args []Value) (Flow, Value, error) {
	if method == nil {
		return FlowCompleted, NewNull(), internalFault("dispatch of nil method")
	}
	if len(args) != len(method.Args) {
		return FlowCompleted, NewNull(), internalFault("%s expects %d arguments, got %d", method.FullName(), len(method.Args), len(args))
	}

	exec.depth++
	defer func() { exec.depth-- }()
	if limit := exec.engine.config.RecursionLimit; limit > 0 && exec.depth > limit {
		return FlowCompleted, NewNull(), userFault(CodeRecursionLimit, "maximum recursion depth exceeded (%d) calling %s", limit, method.FullName())
	}

	self := NewNull()
	if !method.Static {
		obj, ok := receiver.Object()
		if !ok {
			return FlowCompleted, NewNull(), internalFault("instance method %s called without a receiver", method.FullName())
		}
		adjusted, err := adjustReceiver(method, obj)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		self = NewObjectValue(adjusted)
	}

	if method.Extern {
		val, err := exec.callExtern(method, self, args)
		if err != nil {
			return FlowCompleted, NewNull(), err
		}
		if method.Returns == nil || method.Returns.Name == TypeNameVoid {
			return FlowCompleted, NewNull(), nil
		}
		return FlowReturnValue, val, nil
	}

	if method.Constructor && !method.Static && method.Class != nil && method.Class.Parent != nil {
		if parentCtor := method.Class.Parent.Constructor(0); parentCtor != nil {
			if _, _, err := exec.callMethod(parentCtor, self, nil); err != nil {
				return FlowCompleted, NewNull(), err
			}
		}
	}

	env := NewEnv()
	for i, param := range method.Args {
		env.Define(param.Name, args[i])
	}
	if !method.Static {
		env.Define(thisBinding, self)
		if method.Class != nil && method.Class.Parent != nil {
			env.Define(superBinding, self)
		}
	}

	sc := &scope{method: method, self: self, env: env}
	flow, val, err := exec.execStatements(method.Body, sc)
	if err != nil {
		return FlowCompleted, NewNull(), err
	}
	switch flow {
	case FlowCompleted, FlowReturnDefault:
		return flow, method.Returns.Default(), nil
	case FlowReturnValue:
		return flow, val, nil
	default:
		return flow, NewNull(), internalFault("%s escaped %s", flow, method.FullName())
	}
}

// adjustReceiver handles calls from a nested-class instance into a method of
// an enclosing class: the receiver becomes the first instance on the owner
// chain whose class is, or inherits from, the declaring class. A subclass
// instance of the declaring class qualifies; an instance of one of its
// ancestors does not, since it would lack the declaring class's members.
func adjustReceiver(method *Method, receiver *Object) (*Object, error) {
	declaring := method.Class
	if declaring == nil || !strings.HasPrefix(receiver.Class.Name, declaring.Name+".") {
		return receiver, nil
	}
	for obj := receiver; obj != nil; obj = obj.Owner {
		if obj.Class.IsSubclassOf(declaring) {
			return obj, nil
		}
	}
	return nil, internalFault("no enclosing %s instance for %s", declaring.Name, receiver.Class.Name)
}

func (exec *Execution) callExtern(method *Method, self Value, args []Value) (Value, error) {
	className := ""
	if method.Class != nil {
		className = method.Class.Name
	}
	fn, ok := exec.types.LookupExtern(className, method.Name)
	if !ok {
		fault := userFault(CodeExternMissing, "extern method not registered: %s", method.FullName())
		fault.addFrame(method, method.Pos)
		return NewNull(), fault
	}

	callArgs := args
	if !method.Static {
		callArgs = make([]Value, 0, len(args)+1)
		callArgs = append(callArgs, self)
		callArgs = append(callArgs, args...)
	}
	exec.engine.logger.Debug("extern dispatch", "method", method.FullName(), "args", len(args))

	val, err := invokeNative(fn, callArgs)
	if err == nil {
		return val, nil
	}
	if isHostControlSignal(err) {
		return NewNull(), err
	}

	var fault *Fault
	if native, ok := AsFault(err); ok {
		fault = &Fault{
			Kind:    FaultUser,
			Message: native.Message,
			Code:    native.Code,
			HasCode: native.HasCode,
			Props:   maps.Clone(native.Props),
		}
	} else {
		fault = userFault(CodeNativeFailed, "%s", rootMessage(err))
	}
	fault.addFrame(method, method.Pos)
	return NewNull(), fault
}

func invokeNative(fn NativeFunc, args []Value) (val Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			val = NewNull()
			err = fmt.Errorf("native panic: %v", r)
		}
	}()
	return fn(args)
}

// rootMessage strips wrapping so scripts see the native's own message.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func (exec *Execution) evalCallExpr(expr *CallExpr, sc *scope) (Value, error) {
	args, err := exec.evalArgs(expr.Args, sc)
	if err != nil {
		return NewNull(), err
	}

	switch {
	case expr.Super:
		declaring := sc.method.Class
		if declaring == nil || declaring.Parent == nil {
			return NewNull(), internalFault("super call in %s without a parent class", sc.method.FullName())
		}
		method := declaring.Parent.FindMethod(expr.Method, len(args))
		if method == nil {
			return NewNull(), userFault(CodeMethodNotFound, "method not found: %s.%s", declaring.Parent.Name, expr.Method)
		}
		return exec.invoke(method, sc.self, args)

	case expr.Receiver != nil:
		target, err := exec.evalExpression(expr.Receiver, sc)
		if err != nil {
			return NewNull(), err
		}
		obj, ok := target.Object()
		if !ok {
			if target.IsNull() {
				return NewNull(), userFault(CodeNullReference, "null reference calling %s", expr.Method)
			}
			return NewNull(), userFault(CodeInvalidOperand, "cannot call %s on %s", expr.Method, target.Kind())
		}
		method := obj.Class.FindMethod(expr.Method, len(args))
		if method == nil && expr.Class != "" {
			if class, ok := exec.types.SearchClass(expr.Class); ok {
				method = class.FindMethod(expr.Method, len(args))
			}
		}
		if method == nil {
			return NewNull(), userFault(CodeMethodNotFound, "method not found: %s.%s", obj.Class.Name, expr.Method)
		}
		return exec.invoke(method, target, args)

	default:
		class := sc.method.Class
		if expr.Class != "" {
			var ok bool
			class, ok = exec.types.SearchClass(expr.Class)
			if !ok {
				return NewNull(), userFault(CodeTypeNotDefined, "type not defined: %s", expr.Class)
			}
		}
		if class == nil {
			return NewNull(), internalFault("call to %s has no class", expr.Method)
		}
		var method *Method
		if self := sc.selfObject(); self != nil && self.Class.IsSubclassOf(class) {
			if m := self.Class.FindMethod(expr.Method, len(args)); m != nil && !m.Static {
				method = m
			}
		}
		if method == nil {
			method = class.FindMethod(expr.Method, len(args))
		}
		if method == nil {
			return NewNull(), userFault(CodeMethodNotFound, "method not found: %s.%s", class.Name, expr.Method)
		}
		return exec.invoke(method, sc.self, args)
	}
}

func (exec *Execution) invoke(method *Method, receiver Value, args []Value) (Value, error) {
	if method.Static {
		receiver = NewNull()
	}
	_, val, err := exec.callMethod(method, receiver, args)
	return val, err
}

// construct allocates an instance and runs the constructor matching the
// argument count. With no arguments and no own constructor, the nearest
// ancestor's zero-argument constructor runs instead.
func (exec *Execution) construct(class *Class, owner *Object, args []Value) (*Object, error) {
	obj := NewObject(class, owner)
	ctor := class.Constructor(len(args))
	if ctor == nil {
		if len(args) > 0 {
			return nil, userFault(CodeMethodNotFound, "method not found: no %s constructor takes %d arguments", class.Name, len(args))
		}
		for cls := class.Parent; cls != nil && ctor == nil; cls = cls.Parent {
			ctor = cls.Constructor(0)
		}
		if ctor == nil {
			return obj, nil
		}
	}
	if _, _, err := exec.callMethod(ctor, NewObjectValue(obj), args); err != nil {
		return nil, err
	}
	return obj, nil
}
