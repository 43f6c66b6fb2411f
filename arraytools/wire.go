package arraytools

import "unsafe"

// Scalar is the set of element types this module can move across a
// MessagingRuntime. Transported types must be trivially copyable with a
// stable binary representation; fixed-width numeric types are exactly
// that, so chunk payloads are reinterpreted as bytes rather than routed
// through an encoding layer (the Go analogue of the original's
// `unsafe { std::mem::transmute(...) }` in array_tools.rs).
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// BytesOf reinterprets a slice of scalars as its underlying bytes, with no
// copy. The returned slice aliases s; callers must not mutate s while the
// bytes are in flight.
func BytesOf[T Scalar](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	width := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*width)
}

// ScalarsOf reinterprets a byte slice produced by BytesOf back into a slice
// of n scalars of type T. It panics if b does not hold exactly n elements.
func ScalarsOf[T Scalar](b []byte, n int) []T {
	var zero T
	width := int(unsafe.Sizeof(zero))
	if len(b) != n*width {
		panic("arraytools: byte buffer does not hold the expected element count")
	}
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}
