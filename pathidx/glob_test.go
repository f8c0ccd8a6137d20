package pathidx

import (
	"regexp"
	"testing"
)

func TestToRegexpLiterals(t *testing.T) {
	re := regexp.MustCompile(ToRegexp("a.b.c"))
	if !re.MatchString("a.b.c") {
		t.Fatalf("expected literal path to match itself")
	}
	if re.MatchString("axbxc") {
		t.Fatalf("dot must not match arbitrary characters")
	}
}

func TestToRegexpStar(t *testing.T) {
	re := regexp.MustCompile(ToRegexp("a.*.c"))
	for _, s := range []string{"a.b.c", "a.bbbb.c", "a..c"} {
		if !re.MatchString(s) {
			t.Fatalf("expected %q to match a.*.c", s)
		}
	}
	if re.MatchString("a.b.c.d") {
		t.Fatalf("did not expect a.b.c.d to match a.*.c")
	}
}

func TestToRegexpQuestion(t *testing.T) {
	re := regexp.MustCompile(ToRegexp("a.b?.c"))
	if !re.MatchString("a.b1.c") || !re.MatchString("a.b.c") {
		t.Fatalf("expected ? to match zero-or-one arbitrary char")
	}
}

func TestToRegexpBraces(t *testing.T) {
	re := regexp.MustCompile(ToRegexp("a.{b,c,d}.e"))
	for _, s := range []string{"a.b.e", "a.c.e", "a.d.e"} {
		if !re.MatchString(s) {
			t.Fatalf("expected %q to match brace alternation", s)
		}
	}
	if re.MatchString("a.f.e") {
		t.Fatalf("did not expect a.f.e to match brace alternation")
	}
}

func TestToRegexpNumericRange(t *testing.T) {
	re := regexp.MustCompile(ToRegexp("a.server[2-5].b"))
	for _, s := range []string{"a.server2.b", "a.server3.b", "a.server4.b", "a.server5.b"} {
		if !re.MatchString(s) {
			t.Fatalf("expected %q to match [2-5]", s)
		}
	}
	if re.MatchString("a.server6.b") || re.MatchString("a.server1.b") {
		t.Fatalf("range must not match outside [2-5]")
	}
}

func TestToRegexpNumericRangeNormalizesOrder(t *testing.T) {
	forward := ToRegexp("a.server[2-5].b")
	backward := ToRegexp("a.server[5-2].b")
	if forward != backward {
		t.Fatalf("[5-2] must normalize to the same pattern as [2-5]: %q vs %q", backward, forward)
	}
}

func TestToRegexpNonNumericBracketsPassThrough(t *testing.T) {
	// A non-numeric bracket expression isn't a recognized range, so it
	// is passed through unchanged and compiles as an ordinary regex
	// character class.
	re := regexp.MustCompile(ToRegexp("a.[abc].b"))
	if !re.MatchString("a.b.b") {
		t.Fatalf("expected [abc] to pass through as a character class")
	}
}
