// Package format implements C printf and scanf format interpreters.
//
// Arguments are passed as an Args cursor over tagged Arg values instead of
// a raw variadic list. Every extraction checks the tag against the
// conversion being processed and fails with an *ArgError on mismatch, so a
// format string can never reinterpret argument memory.
//
// Integer widths follow an LP64 host: char 8 bits, short 16, int 32,
// long and long long 64, size_t, ptrdiff_t and intmax_t 64.
//
// # Printing
//
//	args := format.NewArgs(format.Int(42), format.CString("answer"))
//	n, err := format.Fprintf(w, []byte("%s=%05d\n"), args)
//
// # Scanning
//
//	var v int32
//	buf := make([]byte, 16)
//	res, err := format.Fscanf(r, []byte("%d,%s"), format.NewArgs(format.Out(&v), format.Out(buf)))
package format
