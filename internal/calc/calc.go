// Package calc evaluates arithmetic expressions behind three gates: a length
// bound, an identifier denylist, and a math-name allow-list. Only expressions
// that pass all three reach the arithmetic-only evaluator.
package calc

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxExpressionLength bounds the accepted input, in bytes.
const MaxExpressionLength = 200

var (
	ErrEmpty           = errors.New("expression is empty")
	ErrTooLong         = fmt.Errorf("expression exceeds %d characters", MaxExpressionLength)
	ErrForbidden       = errors.New("expression contains a forbidden token")
	ErrUnknownName     = errors.New("expression uses an unknown name")
	ErrInvalidChars    = errors.New("expression contains invalid characters")
	ErrNotNumeric      = errors.New("expression did not produce a number")
	ErrNonFinite       = errors.New("result is not a finite number")
	ErrEvaluation      = errors.New("expression could not be evaluated")
	errArgumentCount   = errors.New("wrong number of arguments")
	errArgumentNumeric = errors.New("arguments must be numbers")
)

var (
	denylistPattern   = regexp.MustCompile(`(?i)\b(import|eval|exec|open|system|compile|getattr|setattr|delattr|hasattr|globals|locals|vars|dir|lambda|subprocess|os|sys|input|breakpoint|builtins|class|bases|subclasses|mro|type|object|print|help)\b`)
	identifierPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
	charsetPattern    = regexp.MustCompile(`^[0-9A-Za-z_+\-*/%^().,\s]*$`)
	mathPrefix        = regexp.MustCompile(`\bmath\.`)
)

// Evaluate checks and evaluates expression.
func Evaluate(expression string) (float64, error) {
	expression = strings.TrimSpace(expression)
	if err := Check(expression); err != nil {
		return 0, err
	}
	prepared := mathPrefix.ReplaceAllString(expression, "")
	prepared = strings.ReplaceAll(prepared, "^", "**")

	raw, err := language.Evaluate(prepared, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: got %T", ErrNotNumeric, raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrNonFinite
	}
	return value, nil
}

// Check runs the gates without evaluating.
func Check(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return ErrEmpty
	}
	if len(expression) > MaxExpressionLength {
		return ErrTooLong
	}
	if strings.Contains(expression, "__") {
		return fmt.Errorf("%w: __", ErrForbidden)
	}
	if match := denylistPattern.FindString(expression); match != "" {
		return fmt.Errorf("%w: %s", ErrForbidden, match)
	}
	if !charsetPattern.MatchString(expression) {
		return ErrInvalidChars
	}
	for _, name := range identifierPattern.FindAllString(expression, -1) {
		if _, ok := allowedNames[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownName, name)
		}
	}
	return nil
}

// AllowedNames lists the accepted constants and functions.
func AllowedNames() []string {
	names := make([]string, 0, len(allowedNames))
	for name := range allowedNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format renders a result without float noise for whole numbers.
func Format(value float64) string {
	abs := math.Abs(value)
	switch {
	case value == math.Trunc(value) && abs < 1e15:
		return strconv.FormatFloat(value, 'f', 0, 64)
	case abs >= 1e-4 && abs < 1e15:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
}
