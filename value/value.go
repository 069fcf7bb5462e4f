// Package value implements the tagged value variant shared by the parser,
// the evaluator and every external collaborator.
//
// One Go type covers every variable kind, coerced to a string on demand,
// the same shape a shell's variable model uses internally; here the union
// covers the richer Rexx value space (bool, float, array, object, heredoc)
// instead of a string/indexed-array/assoc-array trio.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Float
	String
	Array
	Object
	Heredoc
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	case Heredoc:
		return "heredoc"
	default:
		return "unknown"
	}
}

// Value is a tagged union covering every runtime value kind. Only the
// field matching Kind is meaningful; the zero Value is Null.
type Value struct {
	Kind Kind

	Bool    bool
	Integer int64
	Float   float64
	Str     string
	Arr     []Value
	Obj     map[string]Value

	// Heredoc-only fields (Kind == Heredoc): the raw content and the
	// delimiter it was introduced with. A heredoc whose delimiter
	// contains "JSON" (case-insensitive) decodes to Array/Object
	// instead of staying a Heredoc once Decode is called.
	HeredocContent   string
	HeredocDelimiter string
}

// Constructors.

func Nil() Value              { return Value{Kind: Null} }
func Of(b bool) Value         { return Value{Kind: Bool, Bool: b} }
func OfInt(i int64) Value     { return Value{Kind: Integer, Integer: i} }
func OfFloat(f float64) Value { return Value{Kind: Float, Float: f} }
func OfString(s string) Value { return Value{Kind: String, Str: s} }
func OfArray(a []Value) Value { return Value{Kind: Array, Arr: a} }
func OfObject(o map[string]Value) Value {
	if o == nil {
		o = map[string]Value{}
	}
	return Value{Kind: Object, Obj: o}
}

func EmptyArray() Value  { return OfArray([]Value{}) }
func EmptyObject() Value { return OfObject(nil) }

// OfHeredoc builds the raw Heredoc variant. IsJSONDelimiter(delimiter)
// should be checked by the caller before deciding whether to immediately
// Decode it: an empty or invalid JSON payload is a hard error, so decoding
// must happen at a well-defined point, not lazily on every read.
func OfHeredoc(content, delimiter string) Value {
	return Value{Kind: Heredoc, HeredocContent: content, HeredocDelimiter: delimiter}
}

// IsJSONDelimiter reports whether a heredoc delimiter marks its payload as
// JSON: the delimiter contains "json", case-insensitive.
func IsJSONDelimiter(delimiter string) bool {
	return strings.Contains(strings.ToUpper(delimiter), "JSON")
}

// JSONError is returned when a heredoc marked as JSON fails to decode.
type JSONError struct {
	Delimiter string
	Err       error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("invalid JSON heredoc <<%s: %v", e.Delimiter, e.Err)
}
func (e *JSONError) Unwrap() error { return e.Err }

// Decode converts a Heredoc value whose delimiter marks it as JSON into the
// corresponding Array/Object Value. An empty or invalid payload is a hard
// error, never a silent fallback to a string.
func (v Value) Decode() (Value, error) {
	if v.Kind != Heredoc || !IsJSONDelimiter(v.HeredocDelimiter) {
		return v, nil
	}
	trimmed := strings.TrimSpace(v.HeredocContent)
	if trimmed == "" {
		return Value{}, &JSONError{Delimiter: v.HeredocDelimiter, Err: fmt.Errorf("empty JSON payload")}
	}
	var raw any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Value{}, &JSONError{Delimiter: v.HeredocDelimiter, Err: err}
	}
	return fromAny(raw), nil
}

func fromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Nil()
	case bool:
		return Of(x)
	case float64:
		if x == float64(int64(x)) {
			return OfInt(int64(x))
		}
		return OfFloat(x)
	case string:
		return OfString(x)
	case []any:
		arr := make([]Value, len(x))
		for i, e := range x {
			arr[i] = fromAny(e)
		}
		return OfArray(arr)
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, e := range x {
			obj[k] = fromAny(e)
		}
		return OfObject(obj)
	default:
		return Nil()
	}
}

// String renders a Value the way SAY / string concatenation do: the plain
// textual form, with JSON-ish rendering for arrays/objects so round-tripping
// through JSON_STRINGIFY-like built-ins is lossless for the core's own
// purposes (the real JSON_STRINGIFY built-in lives in the out-of-scope
// function library, but the core's own string coercion must still be total).
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return ""
	case Bool:
		if v.Bool {
			return "1"
		}
		return "0"
	case Integer:
		return strconv.FormatInt(v.Integer, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case String:
		return v.Str
	case Heredoc:
		return v.HeredocContent
	case Array:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.jsonLiteral()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case Object:
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ":" + v.Obj[k].jsonLiteral()
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return ""
	}
}

func (v Value) jsonLiteral() string {
	if v.Kind == String {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

// Truthy implements the language's truthiness rule: used by IF/WHILE/UNTIL
// conditions and LogicalNot/And/Or.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Null:
		return false
	case Bool:
		return v.Bool
	case Integer:
		return v.Integer != 0
	case Float:
		return v.Float != 0
	case String:
		return v.Str != "" && v.Str != "0"
	case Heredoc:
		return v.HeredocContent != ""
	case Array:
		return len(v.Arr) > 0
	case Object:
		return len(v.Obj) > 0
	default:
		return false
	}
}

// TypeError is raised when an operation needs a numeric-coercible operand
// and doesn't get one.
type TypeError struct {
	Op  string
	Val Value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: operand %q is not numeric", e.Op, e.Val.String())
}

// Number coerces a Value to a float64 for arithmetic: `"3" + 4 = 7` works,
// but `"three" + 1` raises TypeError. Integer-valued results are
// re-derived by the caller via FromNumber below.
func (v Value) Number() (float64, error) {
	switch v.Kind {
	case Integer:
		return float64(v.Integer), nil
	case Float:
		return v.Float, nil
	case Bool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, &TypeError{Op: "numeric coercion", Val: v}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return float64(n), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return 0, &TypeError{Op: "numeric coercion", Val: v}
	default:
		return 0, &TypeError{Op: "numeric coercion", Val: v}
	}
}

// IsIntegral reports whether a float64 produced by Number represents a
// value that should render back as an Integer Value rather than a Float.
func IsIntegral(f float64) bool {
	return f == float64(int64(f))
}

// FromNumber builds the narrowest Value (Integer if exact, else Float) for
// an arithmetic result.
func FromNumber(f float64) Value {
	if IsIntegral(f) {
		return OfInt(int64(f))
	}
	return OfFloat(f)
}

// Equal implements the `=` comparison operator across kinds: numeric
// operands compare numerically, everything else compares as strings. This
// mirrors the classic Rexx "compare as numbers if both look numeric, else
// as strings" rule, which the condition sublanguage relies on.
func Equal(a, b Value) bool {
	if an, aerr := a.Number(); aerr == nil {
		if bn, berr := b.Number(); berr == nil {
			return an == bn
		}
	}
	return a.String() == b.String()
}

// Compare returns -1, 0, 1 comparing a to b, using the same numeric-first
// rule as Equal.
func Compare(a, b Value) int {
	if an, aerr := a.Number(); aerr == nil {
		if bn, berr := b.Number(); berr == nil {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a.String(), b.String())
}
