package format

import (
	"bytes"
	"fmt"
)

// Kind is the tag class of an argument.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindPointer
	KindFloat64
	KindBytes
	KindOut
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindPointer:
		return "pointer"
	case KindFloat64:
		return "float64"
	case KindBytes:
		return "bytes"
	case KindOut:
		return "out"
	default:
		return "missing"
	}
}

// Arg is one tagged variadic argument.
type Arg struct {
	kind  Kind
	bits  uint64
	float float64
	bytes []byte
	out   any
}

// Kind returns the tag class of a.
func (a Arg) Kind() Kind { return a.kind }

// Int is a C int.
func Int(v int32) Arg { return Arg{kind: KindInt32, bits: uint64(uint32(v))} }

// Uint is a C unsigned int.
func Uint(v uint32) Arg { return Arg{kind: KindInt32, bits: uint64(v)} }

// Char is a char promoted to int.
func Char(c byte) Arg { return Arg{kind: KindInt32, bits: uint64(c)} }

// Long is a C long, long long, ptrdiff_t or intmax_t.
func Long(v int64) Arg { return Arg{kind: KindInt64, bits: uint64(v)} }

// ULong is a C unsigned long or size_t.
func ULong(v uint64) Arg { return Arg{kind: KindInt64, bits: v} }

// Ptr is a pointer-sized address.
func Ptr(addr uintptr) Arg { return Arg{kind: KindPointer, bits: uint64(addr)} }

// Float is a double.
func Float(v float64) Arg { return Arg{kind: KindFloat64, float: v} }

// CString is a NUL-terminated copy of s.
func CString(s string) Arg {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return Arg{kind: KindBytes, bytes: b}
}

// Bytes is a pointer to caller memory. The string ends at the first NUL or
// at the end of b. A nil slice is the null pointer.
func Bytes(b []byte) Arg { return Arg{kind: KindBytes, bytes: b} }

// Out is a scanf target: a pointer to a sized integer (*int8 … *uint64,
// *int, *uint, *uintptr) or a []byte buffer for %s and %c.
func Out(target any) Arg { return Arg{kind: KindOut, out: target} }

// ArgError reports a variadic argument that does not fit its conversion.
type ArgError struct {
	Index int  // Zero-based position in the argument list
	Want  Kind // Expected tag class
	Got   Kind // KindInvalid when the list is exhausted
	Conv  byte // Conversion character, if any

	Reason string // Set when the tag matched but the value does not fit
}

func (e *ArgError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("format: argument %d for %%%c: %s", e.Index, e.Conv, e.Reason)
	}
	if e.Got == KindInvalid {
		return fmt.Sprintf("format: argument %d for %%%c: missing %s", e.Index, e.Conv, e.Want)
	}
	return fmt.Sprintf("format: argument %d for %%%c: want %s, got %s", e.Index, e.Conv, e.Want, e.Got)
}

// Args is a one-directional cursor over variadic arguments.
type Args struct {
	list []Arg
	pos  int
}

// NewArgs creates a cursor over args.
func NewArgs(args ...Arg) *Args {
	return &Args{list: args}
}

// Remaining returns the number of unconsumed arguments.
func (a *Args) Remaining() int {
	if a == nil {
		return 0
	}
	return len(a.list) - a.pos
}

// next consumes one argument of kind want.
func (a *Args) next(want Kind, conv byte) (Arg, error) {
	if a == nil || a.pos >= len(a.list) {
		idx := 0
		if a != nil {
			idx = a.pos
		}
		return Arg{}, &ArgError{Index: idx, Want: want, Conv: conv}
	}
	arg := a.list[a.pos]
	if arg.kind != want {
		return Arg{}, &ArgError{Index: a.pos, Want: want, Got: arg.kind, Conv: conv}
	}
	a.pos++
	return arg, nil
}

// NextInt32 returns the bits of an int-sized argument.
func (a *Args) NextInt32(conv byte) (uint32, error) {
	arg, err := a.next(KindInt32, conv)
	return uint32(arg.bits), err
}

// NextInt64 returns the bits of a long-sized argument.
func (a *Args) NextInt64(conv byte) (uint64, error) {
	arg, err := a.next(KindInt64, conv)
	return arg.bits, err
}

// NextPointer returns a pointer-sized address.
func (a *Args) NextPointer(conv byte) (uintptr, error) {
	arg, err := a.next(KindPointer, conv)
	return uintptr(arg.bits), err
}

// NextFloat returns a double.
func (a *Args) NextFloat(conv byte) (float64, error) {
	arg, err := a.next(KindFloat64, conv)
	return arg.float, err
}

// NextString returns the bytes before the terminating NUL and whether the
// pointer was non-null. At most limit bytes are examined when limit >= 0.
func (a *Args) NextString(conv byte, limit int) ([]byte, bool, error) {
	arg, err := a.next(KindBytes, conv)
	if err != nil || arg.bytes == nil {
		return nil, false, err
	}
	b := arg.bytes
	if limit >= 0 && limit < len(b) {
		b = b[:limit]
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return b, true, nil
}

// NextOut returns a scanf target.
func (a *Args) NextOut(conv byte) (any, error) {
	arg, err := a.next(KindOut, conv)
	return arg.out, err
}
