package geocoding

import "strings"

const upperHex = "0123456789ABCDEF"

// EncodeSegment percent-encodes s for use as a single URL path segment.
// Every byte except the RFC 3986 unreserved characters (ALPHA, DIGIT, "-", ".", "_", "~")
// is escaped, so separators inside addresses ("/", "?", "&", "#") can never change the
// structure of the request path. url.PathUnescape restores the original string.
func EncodeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := range len(s) {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	default:
		return false
	}
}
