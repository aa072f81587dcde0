// Package platform owns the one truly OS-facing concern in this compiler:
// mapping an anonymous, writable memory region to receive freshly emitted
// machine code, then flipping it to read-execute once the bytes are final.
// Matches the teacher's own choice (internal/platform) to talk to syscall
// directly rather than take on a golang.org/x/sys dependency.
package platform

import "syscall"

// Mapping is an anonymous memory region owned for the lifetime of one
// compiled function. It starts out writable so the emitter can copy bytes
// into it, then transitions to read-execute exactly once via
// MakeExecutable.
type Mapping struct {
	code []byte
}

// MmapCodeSegment reserves a read/write anonymous mapping of length bytes
// and copies code into it. length must equal len(code); it is taken
// explicitly, mirroring the teacher's MmapCodeSegment(io.Reader, int)
// signature, since the emitter always knows the final size up front.
//
// Panics if length is zero — an emitter that produced no bytes at all is a
// lowerer/codegen bug, not a runtime condition to recover from.
func MmapCodeSegment(code []byte, length int) (*Mapping, error) {
	if length == 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	buf, err := syscall.Mmap(-1, 0, length, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		return nil, &MmapError{Errno: err}
	}
	copy(buf, code)
	return &Mapping{code: buf}, nil
}

// MakeExecutable transitions the mapping from read/write to read-execute.
// Called exactly once, after the emitter has finished patching label
// fixups into the buffer — see spec.md §5's "writable→executable
// transition happens exactly once" resource-model rule.
func (m *Mapping) MakeExecutable() error {
	if err := syscall.Mprotect(m.code, syscall.PROT_READ|syscall.PROT_EXEC); err != nil {
		return &MmapError{Errno: err}
	}
	return nil
}

// Bytes exposes the mapped buffer. Valid to read at any point in the
// mapping's lifetime; only meaningful to execute after MakeExecutable.
func (m *Mapping) Bytes() []byte { return m.code }

// Addr returns the mapping's base address, used both as the function's
// entry point and as the call target other compiled functions dial
// directly by pointer.
func (m *Mapping) Addr() uintptr {
	return uintptr(firstElemPointer(m.code))
}

// MunmapCodeSegment releases a mapping previously returned by
// MmapCodeSegment. Panics on a zero-length slice for the same reason
// MmapCodeSegment does: that's a caller bug, not a recoverable condition.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return syscall.Munmap(code)
}

// MmapError wraps the underlying OS error from a failed mmap/mprotect/
// munmap call, matching spec.md §7's MmapError(os_error) codegen error.
type MmapError struct {
	Errno error
}

func (e *MmapError) Error() string { return "mmap: " + e.Errno.Error() }
func (e *MmapError) Unwrap() error { return e.Errno }
