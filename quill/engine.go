package quill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Config controls engine execution bounds.
type Config struct {
	// StepQuota caps the number of statements and loop iterations one
	// Execute call may run. Zero means unlimited.
	StepQuota int
	// RecursionLimit caps nested method dispatch depth.
	RecursionLimit int
	// MaxArrayLength caps the size of `new T[n]`. Zero means
	// DefaultMaxArrayLength.
	MaxArrayLength int
	Logger         *slog.Logger
}

// DefaultMaxArrayLength bounds array allocation when Config leaves it unset.
const DefaultMaxArrayLength = 1 << 24

// StatementHook observes every statement immediately before it runs.
type StatementHook func(method *Method, stmt Statement, types Types, env *Env)

// Engine executes methods against a type registry.
type Engine struct {
	config Config
	logger *slog.Logger
	hook   StatementHook
}

// NewEngine constructs an Engine with defaults applied.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StepQuota < 0 {
		return nil, fmt.Errorf("quill: step quota cannot be negative")
	}
	if cfg.RecursionLimit < 0 {
		return nil, fmt.Errorf("quill: recursion limit cannot be negative")
	}
	if cfg.MaxArrayLength < 0 {
		return nil, fmt.Errorf("quill: max array length cannot be negative")
	}
	if cfg.RecursionLimit == 0 {
		cfg.RecursionLimit = 256
	}
	if cfg.MaxArrayLength == 0 {
		cfg.MaxArrayLength = DefaultMaxArrayLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{config: cfg, logger: logger}, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// Subscribe installs the statement hook, replacing any previous subscriber.
// Passing nil removes it.
func (e *Engine) Subscribe(hook StatementHook) {
	e.hook = hook
}

// Execute runs method with the given receiver (null for static methods) and
// arguments. The returned Flow is the body's control result and the value is
// the method's result with the declared return type's default substituted
// where the body did not return one.
func (e *Engine) Execute(ctx context.Context, method *Method, types Types, receiver Value, args []Value) (Flow, Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	exec := &Execution{engine: e, types: types, ctx: ctx}
	flow, val, err := exec.callMethod(method, receiver, args)
	if err != nil {
		if fault, ok := AsFault(err); ok {
			e.logger.Debug("fault left execution",
				"method", method.FullName(),
				"message", fault.Message,
				"internal", fault.Kind == FaultInternal,
				"frames", len(fault.Frames))
		}
		return flow, NewNull(), err
	}
	return flow, val, nil
}

// Invoke resolves className.methodName and executes it. Instance methods
// get a freshly constructed receiver.
func (e *Engine) Invoke(ctx context.Context, types Types, className, methodName string, args []Value) (Value, error) {
	class, ok := types.SearchClass(className)
	if !ok {
		return NewNull(), userFault(CodeTypeNotDefined, "type not defined: %s", className)
	}
	method := class.FindMethod(methodName, len(args))
	if method == nil {
		return NewNull(), userFault(CodeMethodNotFound, "method not found: %s.%s", className, methodName)
	}
	receiver := NewNull()
	if !method.Static {
		if ctx == nil {
			ctx = context.Background()
		}
		exec := &Execution{engine: e, types: types, ctx: ctx}
		obj, err := exec.construct(class, nil, nil)
		if err != nil {
			return NewNull(), err
		}
		receiver = NewObjectValue(obj)
	}
	_, val, err := e.Execute(ctx, method, types, receiver, args)
	return val, err
}

// ConfigSummary provides a human-readable description of the engine limits.
func (e *Engine) ConfigSummary() string {
	return fmt.Sprintf("steps=%d recursion=%d", e.config.StepQuota, e.config.RecursionLimit)
}
