package pathidx

import (
	"fmt"
	"strconv"
	"strings"
)

// ToRegexp translates a Graphite glob into a regular expression the
// search index can match against the "path" field (§4.3). Substitution
// order is significant: dot/star/question first, then brace lists,
// then numeric ranges, exactly as spec'd.
func ToRegexp(pattern string) string {
	p := pattern
	p = strings.Replace(p, ".", `\.`, -1)
	p = strings.Replace(p, "*", ".*", -1)
	p = strings.Replace(p, "?", ".?", -1)
	p = expandBraces(p)
	p = expandRanges(p)
	return "^" + p + "$"
}

// expandBraces turns "{a,b,c}" into "(a|b|c)".
func expandBraces(p string) string {
	var out strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] != '{' {
			out.WriteByte(p[i])
			continue
		}
		end := strings.IndexByte(p[i:], '}')
		if end < 0 {
			out.WriteByte(p[i])
			continue
		}
		end += i
		options := strings.Split(p[i+1:end], ",")
		out.WriteByte('(')
		out.WriteString(strings.Join(options, "|"))
		out.WriteByte(')')
		i = end
	}
	return out.String()
}

// expandRanges turns "[N-M]" into "(N|N+1|...|M)", order-normalizing
// so that "[5-2]" behaves the same as "[2-5]".
func expandRanges(p string) string {
	var out strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] != '[' {
			out.WriteByte(p[i])
			continue
		}
		end := strings.IndexByte(p[i:], ']')
		if end < 0 {
			out.WriteByte(p[i])
			continue
		}
		end += i
		inner := p[i+1 : end]
		dash := strings.IndexByte(inner, '-')
		if dash < 0 {
			out.WriteString(p[i : end+1])
			i = end
			continue
		}
		lo, loErr := strconv.Atoi(inner[:dash])
		hi, hiErr := strconv.Atoi(inner[dash+1:])
		if loErr != nil || hiErr != nil {
			// not a numeric range; leave the literal brackets as-is
			out.WriteString(p[i : end+1])
			i = end
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		opts := make([]string, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			opts = append(opts, fmt.Sprintf("%d", n))
		}
		out.WriteByte('(')
		out.WriteString(strings.Join(opts, "|"))
		out.WriteByte(')')
		i = end
	}
	return out.String()
}
