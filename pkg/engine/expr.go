package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultExpressionTimeout bounds a single expression evaluation.
const DefaultExpressionTimeout = 5 * time.Second

// maxBindings is the number of single-letter names available to inputs.
const maxBindings = 26

// ErrNotNumeric is returned when an expression evaluates to something
// other than a number.
var ErrNotNumeric = errors.New("expression result is not a number")

// EvalError is a parse or runtime error in expression source.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Expressions evaluates numeric Lisp expressions in a fresh zygomys
// sandbox per call. Calls are independent and may run concurrently.
type Expressions struct {
	timeout time.Duration
}

// NewExpressions returns an evaluator with the given per-call timeout. A
// non-positive timeout selects DefaultExpressionTimeout.
func NewExpressions(timeout time.Duration) *Expressions {
	if timeout <= 0 {
		timeout = DefaultExpressionTimeout
	}
	return &Expressions{timeout: timeout}
}

// Evaluate runs source with args bound to a, b, c and so on, and returns
// the numeric result.
//
// Return semantics:
//   - On success: the value and nil
//   - On parse or runtime failure: an EvalError
//   - On timeout, cancellation or panic: a plain error
func (x *Expressions) Evaluate(ctx context.Context, source string, args ...float64) (float64, error) {
	if len(args) > maxBindings {
		return 0, fmt.Errorf("expression takes at most %d inputs, got %d", maxBindings, len(args))
	}
	for i, a := range args {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return 0, fmt.Errorf("input %c is not finite", 'a'+i)
		}
	}

	ch := make(chan outcome[float64], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[float64]{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		v, err := evaluateExpression(source, args)
		ch <- outcome[float64]{value: v, err: err}
	}()

	return waitWithTimeout(ctx, ch, x.timeout)
}

// evaluateExpression performs the zygomys evaluation in a fresh sandbox.
func evaluateExpression(source string, args []float64) (float64, error) {
	if strings.TrimSpace(source) == "" {
		return 0, EvalError{Message: "empty expression"}
	}

	var prelude strings.Builder
	for i, a := range args {
		fmt.Fprintf(&prelude, "(def %c %s)\n", 'a'+i, floatLiteral(a))
	}

	// Sandbox mode keeps expressions away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerMath(env)

	if err := env.LoadString(prelude.String() + preprocessSource(source)); err != nil {
		return 0, shiftLines(parseZygomysError(err)[0], len(args))
	}
	res, err := env.Run()
	if err != nil {
		return 0, shiftLines(parseZygomysError(err)[0], len(args))
	}
	v, err := toFloat64(res)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// floatLiteral formats v so zygomys reads it back as a float.
func floatLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// shiftLines hides the binding prelude from reported line numbers.
func shiftLines(e EvalError, prelude int) EvalError {
	if e.Line > prelude {
		e.Line -= prelude
	}
	return e
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms expression source before passing it to
// zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//  2. Kebab-case to underscore: smooth-step -> smooth_step
//  3. ; line comments become // comments
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only a hyphen between identifier characters; a lone minus is
		// the subtraction operator.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Math functions available to expressions
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case ok && i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		case ok:
			result.kw[name] = zygo.SexpNull
		default:
			result.positional = append(result.positional, args[i])
		}
	}
	return result
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("%w: got %T", ErrNotNumeric, s)
}

func floats(name string, args []zygo.Sexp, want int) ([]float64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("%s requires %d arguments, got %d", name, want, len(args))
	}
	out := make([]float64, want)
	for i, a := range args {
		v, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func registerMath(env *zygo.Zlisp) {
	unary := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
	}
	for name, fn := range unary {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := floats(name, args, 1)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &zygo.SexpFloat{Val: fn(v[0])}, nil
		})
	}

	env.AddFunction("hypot", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floats(name, args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: math.Hypot(v[0], v[1])}, nil
	})

	// (lerp from to t)
	env.AddFunction("lerp", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := floats(name, args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: v[0] + (v[1]-v[0])*v[2]}, nil
	})

	// (clamp x :min 0 :max 1); either bound may be omitted.
	env.AddFunction("clamp", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a := parseArgs(args)
		v, err := floats(name, a.positional, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		x := v[0]
		if s, ok := a.kw["min"]; ok {
			lo, err := toFloat64(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("clamp: min: %w", err)
			}
			x = math.Max(x, lo)
		}
		if s, ok := a.kw["max"]; ok {
			hi, err := toFloat64(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("clamp: max: %w", err)
			}
			x = math.Min(x, hi)
		}
		return &zygo.SexpFloat{Val: x}, nil
	})
}
