// Package quill implements the Quill execution engine. It runs the resolved
// statement and expression trees produced by a front-end for a class-based,
// dynamically-typed scripting language:
//   - Classes with single inheritance, nested classes named with a dotted
//     prefix (`Outer.Inner`), static and instance properties, constructors.
//   - Values: null, booleans, integers, floats, strings, instants, object
//     instances and fixed-length arrays.
//   - Statements: assignment, if/while/repeat/for, break/continue, return,
//     throw and try/catch.
//   - Extern methods dispatched to native Go functions registered on the
//     type registry.
//
// Every statement passes through a checkpoint that honours context
// cancellation and the configured step quota and then notifies the engine's
// statement hook, which is how the coverage package observes execution.
//
// The engine is single-threaded. A Registry holds global mutable state
// (static property slots, the extern table) and callers must not run the
// engine concurrently against one registry.
package quill
