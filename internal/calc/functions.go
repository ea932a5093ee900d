package calc

import (
	"fmt"
	"math"

	"github.com/PaesslerAG/gval"
)

type mathFunc = func(args ...interface{}) (interface{}, error)

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"inf": math.Inf(1),
}

var functions = map[string]mathFunc{
	"sqrt":      unary(math.Sqrt),
	"cbrt":      unary(math.Cbrt),
	"exp":       unary(math.Exp),
	"expm1":     unary(math.Expm1),
	"log":       logarithm,
	"log2":      unary(math.Log2),
	"log10":     unary(math.Log10),
	"log1p":     unary(math.Log1p),
	"sin":       unary(math.Sin),
	"cos":       unary(math.Cos),
	"tan":       unary(math.Tan),
	"asin":      unary(math.Asin),
	"acos":      unary(math.Acos),
	"atan":      unary(math.Atan),
	"atan2":     binary(math.Atan2),
	"sinh":      unary(math.Sinh),
	"cosh":      unary(math.Cosh),
	"tanh":      unary(math.Tanh),
	"asinh":     unary(math.Asinh),
	"acosh":     unary(math.Acosh),
	"atanh":     unary(math.Atanh),
	"floor":     unary(math.Floor),
	"ceil":      unary(math.Ceil),
	"trunc":     unary(math.Trunc),
	"round":     round,
	"abs":       unary(math.Abs),
	"fabs":      unary(math.Abs),
	"pow":       binary(math.Pow),
	"fmod":      binary(math.Mod),
	"hypot":     binary(math.Hypot),
	"degrees":   unary(func(x float64) float64 { return x * 180 / math.Pi }),
	"radians":   unary(func(x float64) float64 { return x * math.Pi / 180 }),
	"factorial": factorial,
	"gcd":       gcd,
	"min":       extreme(math.Min),
	"max":       extreme(math.Max),
}

// allowedNames is every identifier an expression may contain.
var allowedNames = func() map[string]struct{} {
	names := map[string]struct{}{"math": {}}
	for name := range constants {
		names[name] = struct{}{}
	}
	for name := range functions {
		names[name] = struct{}{}
	}
	return names
}()

var language = func() gval.Language {
	parts := []gval.Language{gval.Arithmetic()}
	for name, value := range constants {
		parts = append(parts, gval.Constant(name, value))
	}
	for name, fn := range functions {
		parts = append(parts, gval.Function(name, fn))
	}
	return gval.NewLanguage(parts...)
}()

func numbers(args []interface{}) ([]float64, error) {
	out := make([]float64, len(args))
	for i, arg := range args {
		f, ok := arg.(float64)
		if !ok {
			return nil, errArgumentNumeric
		}
		out[i] = f
	}
	return out, nil
}

func unary(f func(float64) float64) mathFunc {
	return func(args ...interface{}) (interface{}, error) {
		xs, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(xs) != 1 {
			return nil, fmt.Errorf("%w: expected 1, got %d", errArgumentCount, len(xs))
		}
		return f(xs[0]), nil
	}
}

func binary(f func(float64, float64) float64) mathFunc {
	return func(args ...interface{}) (interface{}, error) {
		xs, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(xs) != 2 {
			return nil, fmt.Errorf("%w: expected 2, got %d", errArgumentCount, len(xs))
		}
		return f(xs[0], xs[1]), nil
	}
}

func extreme(pick func(float64, float64) float64) mathFunc {
	return func(args ...interface{}) (interface{}, error) {
		xs, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return nil, fmt.Errorf("%w: expected at least 1", errArgumentCount)
		}
		out := xs[0]
		for _, x := range xs[1:] {
			out = pick(out, x)
		}
		return out, nil
	}
}

// logarithm is log(x) or log(x, base).
func logarithm(args ...interface{}) (interface{}, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	switch len(xs) {
	case 1:
		return math.Log(xs[0]), nil
	case 2:
		return math.Log(xs[0]) / math.Log(xs[1]), nil
	}
	return nil, fmt.Errorf("%w: expected 1 or 2, got %d", errArgumentCount, len(xs))
}

// round is round(x) or round(x, digits), half away from zero.
func round(args ...interface{}) (interface{}, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	switch len(xs) {
	case 1:
		return math.Round(xs[0]), nil
	case 2:
		scale := math.Pow(10, math.Trunc(xs[1]))
		return math.Round(xs[0]*scale) / scale, nil
	}
	return nil, fmt.Errorf("%w: expected 1 or 2, got %d", errArgumentCount, len(xs))
}

func factorial(args ...interface{}) (interface{}, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, fmt.Errorf("%w: expected 1, got %d", errArgumentCount, len(xs))
	}
	n := xs[0]
	if n < 0 || n != math.Trunc(n) {
		return nil, fmt.Errorf("factorial is only defined for non-negative integers")
	}
	if n > 170 {
		return math.Inf(1), nil
	}
	out := 1.0
	for i := 2.0; i <= n; i++ {
		out *= i
	}
	return out, nil
}

func gcd(args ...interface{}) (interface{}, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(xs) != 2 {
		return nil, fmt.Errorf("%w: expected 2, got %d", errArgumentCount, len(xs))
	}
	a, b := math.Abs(math.Trunc(xs[0])), math.Abs(math.Trunc(xs[1]))
	for b != 0 {
		a, b = b, math.Mod(a, b)
	}
	return a, nil
}
