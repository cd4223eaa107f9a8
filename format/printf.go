package format

import (
	"bytes"
	"io"
	"math"
	"strconv"
)

// SinkError wraps a write failure of the output sink.
type SinkError struct {
	Written int // Bytes reported before the failure
	Err     error
}

func (e *SinkError) Error() string { return "format: sink write failed: " + e.Err.Error() }

func (e *SinkError) Unwrap() error { return e.Err }

// printSpec is one parsed %[flags][width][.precision][length]conv.
type printSpec struct {
	minus, zero, plus, space, alt bool

	width  int
	prec   int // -1 when absent
	length length
	conv   byte // 0 when the format ended early
}

type emitter struct {
	w     io.Writer
	args  *Args
	total int
}

// Fprintf interprets format, pulling arguments from args, and writes the
// result to w. It returns the byte count reported by w.
func Fprintf(w io.Writer, format []byte, args *Args) (int, error) {
	e := emitter{w: w, args: args}
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			j := bytes.IndexByte(format[i:], '%')
			if j < 0 {
				j = len(format) - i
			}
			if err := e.write(format[i : i+j]); err != nil {
				return e.total, err
			}
			i += j
			continue
		}
		sp, next, err := e.parse(format, i+1)
		if err != nil {
			return e.total, err
		}
		i = next
		if sp.conv == 0 {
			break
		}
		if err := e.convert(sp); err != nil {
			return e.total, err
		}
	}
	return e.total, nil
}

func (e *emitter) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := e.w.Write(p)
	e.total += n
	if err != nil {
		return &SinkError{Written: e.total, Err: err}
	}
	return nil
}

func (e *emitter) parse(format []byte, i int) (printSpec, int, error) {
	sp := printSpec{prec: -1}

flags:
	for ; i < len(format); i++ {
		switch format[i] {
		case '-':
			sp.minus = true
		case '0':
			sp.zero = true
		case '+':
			sp.plus = true
		case ' ':
			sp.space = true
		case '#':
			sp.alt = true
		default:
			break flags
		}
	}

	if i < len(format) && format[i] == '*' {
		v, err := e.args.NextInt32('*')
		if err != nil {
			return sp, i, err
		}
		w := int(int32(v))
		if w < 0 {
			sp.minus = true
			w = -w
		}
		sp.width = min(w, maxField)
		i++
	} else {
		sp.width, i, _ = parseDecimal(format, i)
	}

	if i < len(format) && format[i] == '.' {
		i++
		if i < len(format) && format[i] == '*' {
			v, err := e.args.NextInt32('*')
			if err != nil {
				return sp, i, err
			}
			// A negative precision argument counts as omitted.
			if p := int(int32(v)); p >= 0 {
				sp.prec = min(p, maxField)
			}
			i++
		} else {
			sp.prec, i, _ = parseDecimal(format, i)
		}
	}

	sp.length, i = parseLength(format, i)
	if i < len(format) {
		sp.conv = format[i]
		i++
	}
	return sp, i, nil
}

func (e *emitter) convert(sp printSpec) error {
	switch sp.conv {
	case '%':
		return e.write([]byte{'%'})
	case 'c':
		v, err := e.args.NextInt32(sp.conv)
		if err != nil {
			return err
		}
		return e.padded(sp, nil, []byte{byte(v)}, false)
	case 'd', 'i':
		if sp.length == lenBigL {
			return e.longDouble(sp)
		}
		return e.signed(sp)
	case 'u', 'o', 'x', 'X':
		if sp.length == lenBigL {
			return e.longDouble(sp)
		}
		return e.unsigned(sp)
	case 'p':
		addr, err := e.args.NextPointer(sp.conv)
		if err != nil {
			return err
		}
		digits := strconv.AppendUint(nil, uint64(addr), 16)
		return e.padded(sp, []byte("0x"), digits, false)
	case 's':
		s, ok, err := e.args.NextString(sp.conv, sp.prec)
		if err != nil {
			return err
		}
		if !ok {
			s = []byte("(null)")
			if sp.prec >= 0 && sp.prec < len(s) {
				s = s[:sp.prec]
			}
		}
		return e.padded(sp, nil, s, false)
	case 'f', 'F', 'e', 'E', 'g', 'G':
		v, err := e.args.NextFloat(sp.conv)
		if err != nil {
			return err
		}
		return e.float(sp, v)
	default:
		if sp.length != lenNone {
			// The modifier applies as if to %d, then the byte is echoed.
			unknown := sp.conv
			sp.conv = 'd'
			if err := e.convert(sp); err != nil {
				return err
			}
			return e.write([]byte{unknown})
		}
		return e.write([]byte{sp.conv})
	}
}

func (e *emitter) signed(sp printSpec) error {
	var v int64
	if sp.length.bits() == 64 {
		u, err := e.args.NextInt64(sp.conv)
		if err != nil {
			return err
		}
		v = int64(u)
	} else {
		u, err := e.args.NextInt32(sp.conv)
		if err != nil {
			return err
		}
		switch sp.length {
		case lenHH:
			v = int64(int8(u))
		case lenH:
			v = int64(int16(u))
		default:
			v = int64(int32(u))
		}
	}

	mag := uint64(v)
	if v < 0 {
		mag = -mag
	}
	var prefix []byte
	switch {
	case v < 0:
		prefix = []byte{'-'}
	case sp.plus:
		prefix = []byte{'+'}
	case sp.space:
		prefix = []byte{' '}
	}
	return e.padded(sp, prefix, e.digits(sp, mag, 10, false), sp.prec < 0)
}

func (e *emitter) unsigned(sp printSpec) error {
	var v uint64
	if sp.length.bits() == 64 {
		u, err := e.args.NextInt64(sp.conv)
		if err != nil {
			return err
		}
		v = u
	} else {
		u, err := e.args.NextInt32(sp.conv)
		if err != nil {
			return err
		}
		switch sp.length {
		case lenHH:
			v = uint64(uint8(u))
		case lenH:
			v = uint64(uint16(u))
		default:
			v = uint64(u)
		}
	}

	var prefix []byte
	var digits []byte
	switch sp.conv {
	case 'o':
		digits = e.digits(sp, v, 8, false)
		if sp.alt && (len(digits) == 0 || digits[0] != '0') {
			digits = append([]byte{'0'}, digits...)
		}
	case 'x', 'X':
		upper := sp.conv == 'X'
		digits = e.digits(sp, v, 16, upper)
		if sp.alt && v != 0 {
			prefix = []byte{'0', sp.conv}
		}
	default:
		digits = e.digits(sp, v, 10, false)
	}
	return e.padded(sp, prefix, digits, sp.prec < 0)
}

// digits renders mag in base, zero extended to the precision.
func (e *emitter) digits(sp printSpec, mag uint64, base int, upper bool) []byte {
	if sp.prec == 0 && mag == 0 {
		return nil
	}
	d := strconv.AppendUint(nil, mag, base)
	if upper {
		d = bytes.ToUpper(d)
	}
	if sp.prec > len(d) {
		d = append(bytes.Repeat([]byte{'0'}, sp.prec-len(d)), d...)
	}
	return d
}

// longDouble formats an integer conversion carrying the L modifier.
func (e *emitter) longDouble(sp printSpec) error {
	v, err := e.args.NextFloat(sp.conv)
	if err != nil {
		return err
	}
	return e.padded(sp, nil, strconv.AppendFloat(nil, v, 'f', sp.prec, 64), false)
}

func (e *emitter) float(sp printSpec, v float64) error {
	prec := sp.prec
	if prec < 0 {
		prec = 6
	}

	var prefix []byte
	switch {
	case math.Signbit(v) && !math.IsNaN(v):
		prefix = []byte{'-'}
		v = -v
	case sp.plus:
		prefix = []byte{'+'}
	case sp.space:
		prefix = []byte{' '}
	}

	var body []byte
	finite := true
	switch {
	case math.IsInf(v, 0):
		body, finite = []byte("inf"), false
	case math.IsNaN(v):
		body, finite = []byte("nan"), false
	default:
		verb := sp.conv | 0x20 // lower case
		body = strconv.AppendFloat(nil, v, verb, prec, 64)
	}
	if sp.conv == 'F' || sp.conv == 'E' || sp.conv == 'G' {
		body = bytes.ToUpper(body)
	}
	return e.padded(sp, prefix, body, finite)
}

// padded writes prefix and body justified to the field width.
// Zero padding goes between prefix and body when zeroOK.
func (e *emitter) padded(sp printSpec, prefix, body []byte, zeroOK bool) error {
	fill := sp.width - len(prefix) - len(body)
	if fill <= 0 {
		if err := e.write(prefix); err != nil {
			return err
		}
		return e.write(body)
	}

	out := make([]byte, 0, sp.width)
	switch {
	case sp.minus:
		out = append(out, prefix...)
		out = append(out, body...)
		out = append(out, bytes.Repeat([]byte{' '}, fill)...)
	case sp.zero && zeroOK:
		out = append(out, prefix...)
		out = append(out, bytes.Repeat([]byte{'0'}, fill)...)
		out = append(out, body...)
	default:
		out = append(out, bytes.Repeat([]byte{' '}, fill)...)
		out = append(out, prefix...)
		out = append(out, body...)
	}
	return e.write(out)
}
