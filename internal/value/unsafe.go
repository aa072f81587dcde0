package value

import "unsafe"

// ptrOf isolates the one unsafe cast the codec needs to smuggle a Go string
// pointer through a 53-bit integer payload. This is the "classically
// unsafe" call boundary spec.md §5 calls out by name: nothing outside this
// file should need to reach for unsafe to use the codec. The reverse
// direction (payload back to *string) goes through the leakedStrings
// registry in value.go rather than a raw pointer cast, so the GC always
// sees a live reference to the boxed string between Encode and Decode.

func ptrOf(s *string) unsafe.Pointer {
	return unsafe.Pointer(s)
}
