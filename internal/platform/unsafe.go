package platform

import "unsafe"

// firstElemPointer isolates the one unsafe cast this package needs: turning
// a mapped byte slice's backing array into the raw address machine code
// gets called at. Mirrors internal/value's unsafe.go in keeping the cast
// confined to a single named helper.
func firstElemPointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}
