package core

import "time"

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int64) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	u := uint64(n)
	if negative {
		u = uint64(-n)
	}

	var buf [20]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

// utoa converts an unsigned integer to a string
func utoa(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// atou parses a non-negative decimal integer.
// Returns false on empty input, a non-digit, or overflow.
func atou(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		next := n*10 + uint64(c-'0')
		if next < n {
			return 0, false
		}
		n = next
	}
	return n, true
}

// appendPadded appends v as decimal, left-padded with zeros to width.
// Values wider than width are written in full.
func appendPadded(buf []byte, v int, width int) []byte {
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	var digits [20]byte
	pos := len(digits)
	for v > 0 || pos == len(digits) {
		pos--
		digits[pos] = byte('0' + v%10)
		v /= 10
	}
	for n := len(digits) - pos; n < width; n++ {
		buf = append(buf, '0')
	}
	return append(buf, digits[pos:]...)
}

// DateTimeLen is the length of a formatted timestamp for years 0-9999.
const DateTimeLen = 19

// FormatDateTime renders t as "YYYY-MM-DD HH:MM:SS".
func FormatDateTime(t time.Time) string {
	buf := make([]byte, 0, DateTimeLen)
	buf = appendPadded(buf, t.Year(), 4)
	buf = append(buf, '-')
	buf = appendPadded(buf, int(t.Month()), 2)
	buf = append(buf, '-')
	buf = appendPadded(buf, t.Day(), 2)
	buf = append(buf, ' ')
	buf = appendPadded(buf, t.Hour(), 2)
	buf = append(buf, ':')
	buf = appendPadded(buf, t.Minute(), 2)
	buf = append(buf, ':')
	buf = appendPadded(buf, t.Second(), 2)
	return string(buf)
}
