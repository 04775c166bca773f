// Package format renders numbers for the page language.
package format

import (
	"strconv"
	"strings"
)

var bengaliDigits = []rune("০১২৩৪৫৬৭৮৯")

// Digits rewrites ASCII digits in s to the script of lang. Only Bengali
// differs from the input today.
func Digits(s, lang string) string {
	if lang != "bn" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(bengaliDigits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Int formats n with thousand separators in the script of lang.
func Int(n int, lang string) string {
	return Digits(thousandSep(int64(n)), lang)
}

// Position renders a 1-based "i / n" carousel indicator.
func Position(index, n int, lang string) string {
	if n <= 0 {
		return ""
	}
	return Digits(strconv.Itoa(index+1)+" / "+strconv.Itoa(n), lang)
}

func thousandSep(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
