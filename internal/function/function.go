// Package function implements the Function handle: the owner of one
// compiled function's executable mapping and its callable entry point.
package function

import (
	"fmt"
	"runtime"

	"github.com/emberlang/ember/internal/platform"
	"github.com/emberlang/ember/internal/value"
)

// Function owns one executable memory mapping and a typed pointer into it.
// Equality and hashing are by entry address, matching spec.md §3 — two
// Functions are the same function iff they share an entry point.
type Function struct {
	mapping *platform.Mapping
	fv      *funcval
	entry   func() uint64
}

// New wraps an already-executable mapping as a callable, nullary Function.
// Top-level compiled blocks and user-defined functions are both nullary at
// the machine-code boundary: arguments arrive in System V registers the
// caller loaded before jumping here, not via the Go calling convention.
func New(mapping *platform.Mapping) *Function {
	fv := &funcval{fn: mapping.Addr()}
	entry := makeEntry(fv)
	f := &Function{mapping: mapping, fv: fv, entry: entry}
	runtime.SetFinalizer(f, func(f *Function) {
		_ = platform.MunmapCodeSegment(f.mapping.Bytes())
	})
	return f
}

// Call invokes the compiled entry point and decodes its returned
// EncodedValue. A decode failure here indicates a miscompile — spec.md §7
// marks it fatal to the evaluation, not a condition the caller can retry.
func (f *Function) Call() (value.Value, error) {
	raw := f.entry()
	v, err := value.Decode(value.EncodedValue(raw))
	if err != nil {
		return value.Value{}, fmt.Errorf("decode return value: %w", err)
	}
	return v, nil
}

// Addr returns the function's entry address — what the symbol table stores
// so later CallFunction opcodes can dial it directly.
func (f *Function) Addr() uintptr { return f.mapping.Addr() }

// Equal reports whether f and other share an entry address.
func (f *Function) Equal(other *Function) bool {
	if other == nil {
		return false
	}
	return f.Addr() == other.Addr()
}

func (f *Function) String() string { return fmt.Sprintf("@0x%x", f.Addr()) }

// Close unmaps the function's executable memory immediately rather than
// waiting on the finalizer. Must not be called while any symbol table entry
// still points at this Function's entry address.
func (f *Function) Close() error {
	runtime.SetFinalizer(f, nil)
	return platform.MunmapCodeSegment(f.mapping.Bytes())
}
