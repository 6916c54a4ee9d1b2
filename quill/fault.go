package quill

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type FaultKind int

const (
	// FaultUser faults are catchable by try/catch.
	FaultUser FaultKind = iota
	// FaultInternal faults signal a defect in the front-end or the embedding
	// and are never caught by scripts.
	FaultInternal
)

type StackFrame struct {
	Method *Method
	Pos    Position
}

func (f StackFrame) Function() string { return f.Method.FullName() }

// Fault is the engine's error carrier.
type Fault struct {
	Kind    FaultKind
	Message string
	Code    int
	HasCode bool
	Frames  []StackFrame
	// Props carries the fields of a thrown exception object, other than
	// message, across the throw/catch boundary.
	Props map[string]Value
}

const (
	faultFrameHead = 8
	faultFrameTail = 8
)

var errStepQuotaExceeded = errors.New("step quota exceeded")

func (f *Fault) Error() string {
	var b strings.Builder
	if f.Kind == FaultInternal {
		b.WriteString("internal error: ")
	}
	b.WriteString(f.Message)
	if f.HasCode {
		fmt.Fprintf(&b, " [code %d]", f.Code)
	}
	renderFrame := func(frame StackFrame) {
		if frame.Pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (%s)", frame.Function(), frame.Pos)
		} else {
			fmt.Fprintf(&b, "\n  at %s", frame.Function())
		}
	}

	if len(f.Frames) <= faultFrameHead+faultFrameTail {
		for _, frame := range f.Frames {
			renderFrame(frame)
		}
		return b.String()
	}

	for _, frame := range f.Frames[:faultFrameHead] {
		renderFrame(frame)
	}
	omitted := len(f.Frames) - (faultFrameHead + faultFrameTail)
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", omitted)
	for _, frame := range f.Frames[len(f.Frames)-faultFrameTail:] {
		renderFrame(frame)
	}
	return b.String()
}

// Unwrap returns nil: a Fault is terminal.
func (f *Fault) Unwrap() error {
	return nil
}

// addFrame appends a frame unless the most recent one already names the same
// method and location, which keeps recursive propagation from stuttering.
func (f *Fault) addFrame(method *Method, pos Position) {
	if n := len(f.Frames); n > 0 {
		last := f.Frames[n-1]
		if last.Method == method && last.Pos == pos {
			return
		}
	}
	f.Frames = append(f.Frames, StackFrame{Method: method, Pos: pos})
}

func userFault(code FaultCode, format string, args ...any) *Fault {
	return &Fault{
		Kind:    FaultUser,
		Message: fmt.Sprintf(format, args...),
		Code:    code.Code,
		HasCode: true,
	}
}

func internalFault(format string, args ...any) *Fault {
	return &Fault{Kind: FaultInternal, Message: fmt.Sprintf(format, args...)}
}

// NewInternalFault reports an inconsistency in program shape detected
// outside the engine, e.g. by coverage report construction.
func NewInternalFault(format string, args ...any) *Fault {
	return internalFault(format, args...)
}

// AsFault extracts a Fault from err.
func AsFault(err error) (*Fault, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}

// IsInternal reports whether err is an internal-consistency fault.
func IsInternal(err error) bool {
	fault, ok := AsFault(err)
	return ok && fault.Kind == FaultInternal
}

// IsStepQuotaExceeded reports whether execution stopped at the step quota.
func IsStepQuotaExceeded(err error) bool {
	return errors.Is(err, errStepQuotaExceeded)
}

func isHostControlSignal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, errStepQuotaExceeded)
}

// traceFault records the statement boundary a fault is crossing. Host signals
// pass through; foreign errors become user faults.
func traceFault(err error, method *Method, pos Position) error {
	if err == nil || isHostControlSignal(err) {
		return err
	}
	fault, ok := err.(*Fault)
	if !ok {
		fault = &Fault{Kind: FaultUser, Message: err.Error()}
	}
	fault.addFrame(method, pos)
	return fault
}
