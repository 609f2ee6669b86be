// Package blobcodec makes string values safe to carry through a text binding
// that cannot hold NUL bytes.
//
// Two reserved control characters are used: \x01 marks an escape sequence and
// \x02 is both the escape argument and, doubled, the escape of itself. The
// transform must be applied exactly once per write and exactly once per read;
// pairing it wrong corrupts data silently.
package blobcodec

import "strings"

const (
	ctrlA = "\x01"
	ctrlB = "\x02"
	nul   = "\x00"
)

var (
	escapeB   = strings.NewReplacer(ctrlB, ctrlB+ctrlB)
	escapeA   = strings.NewReplacer(ctrlA, ctrlA+ctrlB)
	escapeNul = strings.NewReplacer(nul, ctrlA+ctrlA)

	unescapeNul = strings.NewReplacer(ctrlA+ctrlA, nul)
	unescapeA   = strings.NewReplacer(ctrlA+ctrlB, ctrlA)
	unescapeB   = strings.NewReplacer(ctrlB+ctrlB, ctrlB)
)

// EscapeString escapes \x02, then \x01, then NUL.
func EscapeString(s string) string {
	s = escapeB.Replace(s)
	s = escapeA.Replace(s)
	return escapeNul.Replace(s)
}

// UnescapeString reverses EscapeString, undoing the replacements in the
// opposite order.
func UnescapeString(s string) string {
	s = unescapeNul.Replace(s)
	s = unescapeA.Replace(s)
	return unescapeB.Replace(s)
}

// Escape escapes v when it is a string and returns any other value unchanged.
func Escape(v any) any {
	if s, ok := v.(string); ok {
		return EscapeString(s)
	}
	return v
}

// Unescape unescapes v when it is a string and returns any other value
// unchanged.
func Unescape(v any) any {
	if s, ok := v.(string); ok {
		return UnescapeString(s)
	}
	return v
}

// EscapeAll returns a copy of values with every string escaped.
func EscapeAll(values []any) []any {
	escaped := make([]any, len(values))
	for i, v := range values {
		escaped[i] = Escape(v)
	}
	return escaped
}
