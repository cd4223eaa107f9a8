package format

import (
	"fmt"
	"io"
	"strconv"
)

// Result summarizes a scan.
type Result struct {
	Consumed int  // Bytes taken from the source
	Matched  int  // Conversions stored
	EOF      bool // Scanning stopped because the source ran out
}

type scanner struct {
	r    io.Reader
	bs   io.ByteScanner
	args *Args

	peeked bool
	peek   byte
	eof    bool
	err    error

	consumed int
	matched  int
}

// Fscanf matches format against bytes read from r and stores converted
// values through the Out targets in args.
//
// A literal or conversion that does not match ends the scan normally.
// Only source failures and unusable arguments are returned as errors.
// One byte of lookahead is kept so a field terminator is never consumed;
// when r implements io.ByteScanner that byte is unread before returning.
func Fscanf(r io.Reader, format []byte, args *Args) (Result, error) {
	if args == nil {
		args = NewArgs()
	}
	s := scanner{r: r, args: args}
	if bs, ok := r.(io.ByteScanner); ok {
		s.bs = bs
	}

	err := s.run(format)
	s.release()
	if err == nil {
		err = s.err
	}
	return Result{Consumed: s.consumed, Matched: s.matched, EOF: s.eof}, err
}

func (s *scanner) peekByte() (byte, bool) {
	if s.peeked {
		return s.peek, true
	}
	if s.eof || s.err != nil {
		return 0, false
	}

	var c byte
	var err error
	if s.bs != nil {
		c, err = s.bs.ReadByte()
	} else {
		var one [1]byte
		_, err = io.ReadFull(s.r, one[:])
		c = one[0]
	}
	switch {
	case err == io.EOF:
		s.eof = true
		return 0, false
	case err != nil:
		s.err = err
		return 0, false
	}
	s.peeked, s.peek = true, c
	return c, true
}

func (s *scanner) take() {
	s.peeked = false
	s.consumed++
}

// release hands the lookahead byte back to the source.
func (s *scanner) release() {
	if s.peeked && s.bs != nil && s.bs.UnreadByte() == nil {
		s.peeked = false
	}
}

type scanSpec struct {
	suppress bool
	width    int // -1 when absent
	length   length
	conv     byte
	delim    byte // next literal format byte, or 0
}

func (s *scanner) run(format []byte) error {
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			c, ok := s.peekByte()
			if !ok || c != format[i] {
				return nil
			}
			s.take()
			i++
			continue
		}

		i++
		sp := scanSpec{width: -1}
		if i < len(format) && format[i] == '*' {
			sp.suppress = true
			i++
		}
		if w, next, ok := parseDecimal(format, i); ok {
			if w > 0 {
				sp.width = w
			}
			i = next
		}
		sp.length, i = parseLength(format, i)
		if i >= len(format) {
			return nil
		}
		sp.conv = format[i]
		i++
		if i < len(format) && format[i] != '%' {
			sp.delim = format[i]
		}

		ok, err := s.convert(sp)
		if err != nil || !ok {
			return err
		}
	}
	return nil
}

func (s *scanner) convert(sp scanSpec) (bool, error) {
	switch sp.conv {
	case '%':
		c, ok := s.peekByte()
		if !ok || c != '%' {
			return false, nil
		}
		s.take()
		return true, nil
	case 'i':
		return s.integer(sp)
	case 'd':
		field, ok := s.collect(sp.width, true, isDigit)
		if !ok {
			return false, nil
		}
		v, err := strconv.ParseInt(field, 10, sp.length.bits())
		if err != nil {
			return false, nil
		}
		return true, s.storeInt(sp, uint64(v))
	case 'u':
		return s.unsigned(sp, 10, isDigit)
	case 'o':
		return s.unsigned(sp, 8, isOctDigit)
	case 'x', 'X':
		return s.unsigned(sp, 16, isHexDigit)
	case 'c':
		return s.chars(sp)
	case 's':
		return s.str(sp)
	default:
		return false, nil
	}
}

// collect reads an optionally signed run of digits, at most width bytes.
func (s *scanner) collect(width int, signed bool, digit func(byte) bool) (string, bool) {
	var field []byte
	room := func() bool { return width < 0 || len(field) < width }

	if signed {
		if c, ok := s.peekByte(); ok && c == '-' && room() {
			s.take()
			field = append(field, c)
		}
	}
	start := len(field)
	for room() {
		c, ok := s.peekByte()
		if !ok || !digit(c) {
			break
		}
		s.take()
		field = append(field, c)
	}
	return string(field), len(field) > start
}

// integer scans a signed field whose base follows its prefix:
// 0x or 0X is hexadecimal, a leading 0 octal, anything else decimal.
func (s *scanner) integer(sp scanSpec) (bool, error) {
	n := 0
	room := func() bool { return sp.width < 0 || n < sp.width }

	sign := ""
	if c, ok := s.peekByte(); ok && c == '-' && room() {
		s.take()
		sign = "-"
		n++
	}

	base, digit := 10, isDigit
	zero := false
	if c, ok := s.peekByte(); ok && c == '0' && room() {
		s.take()
		n++
		zero = true
		base, digit = 8, isOctDigit
		if c, ok := s.peekByte(); ok && (c == 'x' || c == 'X') && room() {
			s.take()
			n++
			base, digit = 16, isHexDigit
		}
	}

	width := -1
	if sp.width >= 0 {
		width = sp.width - n
	}
	var field string
	ok := false
	if width != 0 {
		field, ok = s.collect(width, false, digit)
	}
	if !ok {
		if !zero {
			return false, nil
		}
		field = "0"
	}

	v, err := strconv.ParseInt(sign+field, base, sp.length.bits())
	if err != nil {
		return false, nil
	}
	return true, s.storeInt(sp, uint64(v))
}

func (s *scanner) unsigned(sp scanSpec, base int, digit func(byte) bool) (bool, error) {
	width := sp.width
	prefix := 0
	zero := false
	if base == 16 {
		// Optional 0x or 0X.
		if c, ok := s.peekByte(); ok && c == '0' && width != 0 {
			s.take()
			prefix++
			zero = true
			if c, ok := s.peekByte(); ok && (c == 'x' || c == 'X') && (width < 0 || prefix < width) {
				s.take()
				prefix++
			}
		}
		if width > 0 {
			width = max(width-prefix, 0)
		}
	}

	var field string
	ok := false
	if width != 0 {
		field, ok = s.collect(width, false, digit)
	}
	if !ok {
		if !zero {
			return false, nil
		}
		field = "0"
	}

	v, err := strconv.ParseUint(field, base, sp.length.bits())
	if err != nil {
		return false, nil
	}
	return true, s.storeInt(sp, v)
}

func (s *scanner) storeInt(sp scanSpec, v uint64) error {
	if sp.suppress {
		return nil
	}
	idx := s.args.pos
	target, err := s.args.NextOut(sp.conv)
	if err != nil {
		return err
	}

	bits := sp.length.bits()
	stored := true
	switch p := target.(type) {
	case *int8:
		stored = bits == 8
		if stored {
			*p = int8(v)
		}
	case *uint8:
		stored = bits == 8
		if stored {
			*p = uint8(v)
		}
	case *int16:
		stored = bits == 16
		if stored {
			*p = int16(v)
		}
	case *uint16:
		stored = bits == 16
		if stored {
			*p = uint16(v)
		}
	case *int32:
		stored = bits == 32
		if stored {
			*p = int32(v)
		}
	case *uint32:
		stored = bits == 32
		if stored {
			*p = uint32(v)
		}
	case *int64:
		stored = bits == 64
		if stored {
			*p = int64(v)
		}
	case *uint64:
		stored = bits == 64
		if stored {
			*p = v
		}
	case *int:
		stored = bits == 64
		if stored {
			*p = int(v)
		}
	case *uint:
		stored = bits == 64
		if stored {
			*p = uint(v)
		}
	case *uintptr:
		stored = bits == 64
		if stored {
			*p = uintptr(v)
		}
	default:
		stored = false
	}
	if !stored {
		return &ArgError{Index: idx, Want: KindOut, Got: KindOut, Conv: sp.conv,
			Reason: fmt.Sprintf("want %d-bit integer target, got %T", bits, target)}
	}
	s.matched++
	return nil
}

// chars reads exactly width bytes (default 1) without terminating them.
func (s *scanner) chars(sp scanSpec) (bool, error) {
	n := sp.width
	if n < 0 {
		n = 1
	}
	field := make([]byte, 0, n)
	for len(field) < n {
		c, ok := s.peekByte()
		if !ok {
			break
		}
		s.take()
		field = append(field, c)
	}
	if len(field) < n {
		return false, nil
	}
	if sp.suppress {
		return true, nil
	}

	idx := s.args.pos
	target, err := s.args.NextOut(sp.conv)
	if err != nil {
		return false, err
	}
	switch p := target.(type) {
	case []byte:
		if len(p) < n {
			return false, &ArgError{Index: idx, Want: KindOut, Got: KindOut, Conv: sp.conv,
				Reason: fmt.Sprintf("buffer of %d bytes cannot hold %d", len(p), n)}
		}
		copy(p, field)
	case *uint8:
		if n != 1 {
			return false, &ArgError{Index: idx, Want: KindOut, Got: KindOut, Conv: sp.conv,
				Reason: "single byte target for a multi-byte field"}
		}
		*p = field[0]
	case *int8:
		if n != 1 {
			return false, &ArgError{Index: idx, Want: KindOut, Got: KindOut, Conv: sp.conv,
				Reason: "single byte target for a multi-byte field"}
		}
		*p = int8(field[0])
	default:
		return false, &ArgError{Index: idx, Want: KindOut, Got: KindOut, Conv: sp.conv,
			Reason: fmt.Sprintf("want byte target, got %T", target)}
	}
	s.matched++
	return true, nil
}

// str reads bytes up to the delimiter, which is left unconsumed, and
// stores them NUL-terminated.
func (s *scanner) str(sp scanSpec) (bool, error) {
	var field []byte
	for sp.width < 0 || len(field) < sp.width {
		c, ok := s.peekByte()
		if !ok || c == sp.delim {
			break
		}
		s.take()
		field = append(field, c)
	}
	if len(field) == 0 {
		return false, nil
	}
	if sp.suppress {
		return true, nil
	}

	idx := s.args.pos
	target, err := s.args.NextOut(sp.conv)
	if err != nil {
		return false, err
	}
	buf, ok := target.([]byte)
	if !ok || len(buf) == 0 {
		return false, &ArgError{Index: idx, Want: KindOut, Got: KindOut, Conv: sp.conv,
			Reason: fmt.Sprintf("want non-empty []byte target, got %T", target)}
	}
	n := copy(buf[:len(buf)-1], field)
	buf[n] = 0
	s.matched++
	return true, nil
}
