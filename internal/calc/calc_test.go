package calc

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"-7 + 2", -5},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 ** 10", 1024},
		{"2^3", 8},
		{"sqrt(16) + abs(-2)", 6},
		{"math.sqrt(81)", 9},
		{"pow(2, 0.5) * pow(2, 0.5)", 2},
		{"log(8, 2)", 3},
		{"log10(1000)", 3},
		{"round(3.14159, 2)", 3.14},
		{"floor(2.7) + ceil(2.1)", 5},
		{"factorial(5)", 120},
		{"gcd(12, 18)", 6},
		{"max(1, 7, 3) - min(4, 2)", 5},
		{"degrees(pi)", 180},
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.expr)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.expr, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: got %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateRejects(t *testing.T) {
	cases := []struct {
		expr string
		want error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{strings.Repeat("1+", 100) + "1", ErrTooLong},
		{"__import__('os')", ErrForbidden},
		{"().__class__", ErrForbidden},
		{"eval(1)", ErrForbidden},
		{"os.system(1)", ErrForbidden},
		{"lambda", ErrForbidden},
		{"1; 2", ErrInvalidChars},
		{"[1, 2]", ErrInvalidChars},
		{"'a' * 3", ErrInvalidChars},
		{"foo(2)", ErrUnknownName},
		{"x + 1", ErrUnknownName},
		{"1 / 0", ErrNonFinite},
		{"sqrt(-1)", ErrNonFinite},
		{"2 +", ErrEvaluation},
	}
	for _, tc := range cases {
		_, err := Evaluate(tc.expr)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%q: got %v, want %v", tc.expr, err, tc.want)
		}
	}
}

func TestCheckLengthBoundary(t *testing.T) {
	exact := strings.Repeat("1", MaxExpressionLength)
	if err := Check(exact); err != nil {
		t.Fatalf("expression at the limit rejected: %v", err)
	}
	if err := Check(exact + "1"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	cases := map[float64]string{
		14:      "14",
		-5:      "-5",
		2.5:     "2.5",
		0.1:     "0.1",
		1e20:    "1e+20",
		0.00001: "1e-05",
	}
	for value, want := range cases {
		if got := Format(value); got != want {
			t.Fatalf("Format(%v) = %q, want %q", value, got, want)
		}
	}
}

func TestAllowedNames(t *testing.T) {
	names := strings.Join(AllowedNames(), ",")
	for _, name := range []string{"sqrt", "pi", "math", "factorial"} {
		if !strings.Contains(names, name) {
			t.Fatalf("allowed names missing %s", name)
		}
	}
	if strings.Contains(names, "eval") {
		t.Fatalf("eval should not be allowed")
	}
}
