package function

import "unsafe"

// funcval mirrors the runtime's internal representation of a Go func value
// with no captured variables: a single word holding the code pointer. A Go
// func variable is itself a pointer to one of these. Constructing one by
// hand and reinterpreting it as a func() uint64 is the standard trick for
// calling into raw machine code without cgo — see DESIGN.md for the
// grounding reference.
type funcval struct {
	fn uintptr
}

// makeEntry reinterprets fv as a callable, nullary function returning the
// raw 64-bit value the compiled code leaves in rax. This is the one unsafe
// cast the function package performs; everything else is ordinary Go.
func makeEntry(fv *funcval) func() uint64 {
	return *(*func() uint64)(unsafe.Pointer(&fv))
}
