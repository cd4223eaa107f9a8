package format

// length is a C length modifier.
type length uint8

const (
	lenNone length = iota
	lenHH
	lenH
	lenL
	lenLL
	lenBigL
	lenZ
	lenT
	lenJ
)

// bits returns the integer width selected by the modifier on LP64.
func (l length) bits() int {
	switch l {
	case lenHH:
		return 8
	case lenH:
		return 16
	case lenNone:
		return 32
	default:
		return 64
	}
}

// maxField caps parsed widths and precisions.
const maxField = 1 << 20

// parseLength reads an optional length modifier starting at i.
func parseLength(format []byte, i int) (length, int) {
	if i >= len(format) {
		return lenNone, i
	}
	switch format[i] {
	case 'h':
		if i+1 < len(format) && format[i+1] == 'h' {
			return lenHH, i + 2
		}
		return lenH, i + 1
	case 'l':
		if i+1 < len(format) && format[i+1] == 'l' {
			return lenLL, i + 2
		}
		return lenL, i + 1
	case 'L':
		return lenBigL, i + 1
	case 'z':
		return lenZ, i + 1
	case 't':
		return lenT, i + 1
	case 'j':
		return lenJ, i + 1
	}
	return lenNone, i
}

// parseDecimal reads a run of digits starting at i.
func parseDecimal(format []byte, i int) (int, int, bool) {
	n, start := 0, i
	for i < len(format) && format[i] >= '0' && format[i] <= '9' {
		n = min(n*10+int(format[i]-'0'), maxField)
		i++
	}
	return n, i, i > start
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctDigit(c byte) bool { return c >= '0' && c <= '7' }
