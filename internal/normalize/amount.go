package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var parenthesizedNumber = regexp.MustCompile(`^\(\s*[0-9,.]+\s*\)$`)

// ParseAmount converts a free-form amount such as "$1,234.56", "(2,500.00)",
// "1234.56-" or "1.5M" into a signed float.
func (n Normalizer) ParseAmount(s string) (float64, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, false
	}
	if parenthesizedNumber.MatchString(v) {
		v = "-" + strings.NewReplacer("(", "", ")", "").Replace(v)
	}
	if strings.HasSuffix(v, "-") {
		v = "-" + v[:len(v)-1]
	}
	switch n.Locale {
	case LocaleAuto:
		v = resolveSeparators(v, detectDecimalMark(v))
	case LocaleDecimalComma:
		v = resolveSeparators(v, ',')
	}
	v = stripAmountNoise(v)

	multiplier := 1.0
	if v != "" {
		switch v[len(v)-1] {
		case 'k', 'K':
			multiplier = 1e3
		case 'm', 'M':
			multiplier = 1e6
		case 'b', 'B':
			multiplier = 1e9
		}
		if multiplier != 1 {
			v = v[:len(v)-1]
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}

// stripAmountNoise keeps digits, '.', '-' and the K/M/B suffix letters.
func stripAmountNoise(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		case c == 'k', c == 'K', c == 'm', c == 'M', c == 'b', c == 'B':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// detectDecimalMark picks the decimal separator of a single value.
// With both ',' and '.' present the rightmost one wins. A lone ',' is decimal
// only when it is the only comma and one or two digits follow it, so
// "1,234" and "1,23,456" read as grouped integers while "12,5" reads as 12.5.
func detectDecimalMark(v string) byte {
	cpos := strings.LastIndexByte(v, ',')
	dpos := strings.LastIndexByte(v, '.')
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ','
		}
		return '.'
	case cpos >= 0:
		if strings.Count(v, ",") == 1 {
			if d := leadingDigits(v[cpos+1:]); d == 1 || d == 2 {
				return ','
			}
		}
		return 0
	case dpos >= 0 && strings.Count(v, ".") > 1:
		return 0
	default:
		return '.'
	}
}

// resolveSeparators rewrites v so that dec becomes '.' and every other
// grouping separator disappears. dec == 0 means the value has no decimal part.
func resolveSeparators(v string, dec byte) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch {
		case r == ',' || r == '.':
			if byte(r) == dec {
				b.WriteByte('.')
			}
		case r == '\'' || unicode.IsSpace(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func leadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if strings.ContainsAny(s[n:], "0123456789") {
		return -1
	}
	return n
}

func parsePlainFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
