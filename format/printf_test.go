package format

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/cstdio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sprintf(t *testing.T, format string, args ...Arg) string {
	t.Helper()
	var buf bytes.Buffer
	n, err := Fprintf(&buf, []byte(format), NewArgs(args...))
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	return buf.String()
}

func TestFprintfLiteral(t *testing.T) {
	rng := testutil.NewRNG(42)
	for i := 0; i < 200; i++ {
		lit := rng.BytesExcluding(rng.Intn(512), '%')
		var buf bytes.Buffer
		n, err := Fprintf(&buf, lit, NewArgs())
		require.NoError(t, err)
		assert.Equal(t, len(lit), n)
		assert.Equal(t, lit, buf.Bytes())
	}
}

func TestFprintfConversions(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []Arg
		want   string
	}{
		{"percent", "100%%", nil, "100%"},
		{"char", "[%c]", []Arg{Char('x')}, "[x]"},
		{"char truncates", "%c", []Arg{Int(0x141)}, "A"},
		{"int", "%d %i", []Arg{Int(-42), Int(7)}, "-42 7"},
		{"int min", "%d", []Arg{Int(math.MinInt32)}, "-2147483648"},
		{"precision pads digits", "%.5d", []Arg{Int(-42)}, "-00042"},
		{"zero precision zero value", "[%.0d]", []Arg{Int(0)}, "[]"},
		{"unsigned", "%u", []Arg{Int(-1)}, "4294967295"},
		{"octal", "%o %#o", []Arg{Uint(8), Uint(8)}, "10 010"},
		{"hex", "%x %X %#x", []Arg{Uint(0xbeef), Uint(0xbeef), Uint(255)}, "beef BEEF 0xff"},
		{"alt hex zero", "%#x", []Arg{Uint(0)}, "0"},
		{"hh", "%hhd %hhu", []Arg{Int(0x1ff), Int(-1)}, "-1 255"},
		{"h", "%hd %hu", []Arg{Int(0x18000), Int(-1)}, "-32768 65535"},
		{"long", "%ld %lu", []Arg{Long(math.MinInt64), ULong(math.MaxUint64)}, "-9223372036854775808 18446744073709551615"},
		{"long long", "%lld", []Arg{Long(1 << 40)}, "1099511627776"},
		{"size", "%zu %zd", []Arg{ULong(12), Long(-12)}, "12 -12"},
		{"ptrdiff intmax", "%td %jd", []Arg{Long(-3), Long(9)}, "-3 9"},
		{"pointer", "%p", []Arg{Ptr(0xdeadbeef)}, "0xdeadbeef"},
		{"string", "%s!", []Arg{CString("hello")}, "hello!"},
		{"string stops at nul", "%s", []Arg{Bytes([]byte("ab\x00cd"))}, "ab"},
		{"string without nul", "%s", []Arg{Bytes([]byte("abc"))}, "abc"},
		{"null string", "%s", []Arg{Bytes(nil)}, "(null)"},
		{"precision clips", "%.3s", []Arg{CString("hello")}, "hel"},
		{"star precision clips", "%.*s", []Arg{Int(3), CString("hello")}, "hel"},
		{"star precision beyond length", "%.*s", []Arg{Int(10), CString("hello")}, "hello"},
		{"negative star precision", "%.*s", []Arg{Int(-1), CString("hello")}, "hello"},
		{"width", "[%5d]", []Arg{Int(42)}, "[   42]"},
		{"left width", "[%-5d]", []Arg{Int(42)}, "[42   ]"},
		{"zero width", "[%05d]", []Arg{Int(-42)}, "[-0042]"},
		{"zero ignored with precision", "[%06.3d]", []Arg{Int(7)}, "[   007]"},
		{"star width", "[%*d]", []Arg{Int(4), Int(1)}, "[   1]"},
		{"negative star width", "[%*d]", []Arg{Int(-4), Int(1)}, "[1   ]"},
		{"plus space", "%+d % d", []Arg{Int(5), Int(5)}, "+5  5"},
		{"string width", "[%6s]", []Arg{CString("ab")}, "[    ab]"},
		{"alt hex width zero", "[%#08x]", []Arg{Uint(0xab)}, "[0x0000ab]"},
		{"float", "%f", []Arg{Float(3.14159)}, "3.141590"},
		{"float precision", "%.2f", []Arg{Float(2.675)}, "2.67"},
		{"float negative zero", "%.1f", []Arg{Float(math.Copysign(0, -1))}, "-0.0"},
		{"exp", "%e %E", []Arg{Float(12345.678), Float(0.5)}, "1.234568e+04 5.000000E-01"},
		{"general", "%g %g %G", []Arg{Float(0.0001), Float(1e6), Float(1.5e-7)}, "0.0001 1e+06 1.5E-07"},
		{"inf nan", "%f %F %f", []Arg{Float(math.Inf(-1)), Float(math.Inf(1)), Float(math.NaN())}, "-inf INF nan"},
		{"zero padded float", "[%08.2f]", []Arg{Float(-1.5)}, "[-0001.50]"},
		{"L on int shortest", "%Ld", []Arg{Float(2.5)}, "2.5"},
		{"L on int precision", "%.3Lu", []Arg{Float(2.5)}, "2.500"},
		{"unknown with modifier", "%lq", []Arg{Long(17)}, "17q"},
		{"unknown without modifier", "a%qb", nil, "aqb"},
		{"trailing percent", "abc%", nil, "abc"},
		{"trailing modifier", "abc%ll", nil, "abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sprintf(t, tc.format, tc.args...))
		})
	}
}

func TestFprintfArgMismatch(t *testing.T) {
	var buf bytes.Buffer

	t.Run("Wrong width", func(t *testing.T) {
		_, err := Fprintf(&buf, []byte("%ld"), NewArgs(Int(1)))
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, 0, argErr.Index)
		assert.Equal(t, KindInt64, argErr.Want)
		assert.Equal(t, KindInt32, argErr.Got)
	})

	t.Run("Missing", func(t *testing.T) {
		n, err := Fprintf(&buf, []byte("ok %d %d"), NewArgs(Int(1)))
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, 1, argErr.Index)
		assert.Equal(t, KindInvalid, argErr.Got)
		assert.Equal(t, 5, n, "output before the failure is reported")
	})

	t.Run("String for int", func(t *testing.T) {
		_, err := Fprintf(&buf, []byte("%s"), NewArgs(Int(1)))
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.Contains(t, argErr.Error(), "want bytes, got int32")
	})
}

type failingWriter struct {
	limit int
	n     int
}

var errSinkFull = errors.New("sink full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, errSinkFull
	}
	w.n += len(p)
	return len(p), nil
}

func TestFprintfSinkError(t *testing.T) {
	w := &failingWriter{limit: 4}
	n, err := Fprintf(w, []byte("abc %d tail"), NewArgs(Int(12345)))

	var sinkErr *SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.ErrorIs(t, err, errSinkFull)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, sinkErr.Written)
}

func TestFixedBuffer(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff}
	fb := NewFixedBuffer(buf[:3])

	n, err := Fprintf(fb, []byte("%s"), NewArgs(CString("hello")))
	require.NoError(t, err)
	buf[fb.Len()] = 0

	assert.Equal(t, 5, n)
	assert.Equal(t, 3, fb.Len())
	assert.Equal(t, 3, fb.Cap())
	assert.Equal(t, []byte("hel\x00"), buf)
	assert.Equal(t, "hel", string(fb.Bytes()))

	t.Run("Writes past capacity report full length", func(t *testing.T) {
		n, err := fb.Write([]byte("more"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, 3, fb.Len())
	})
}
