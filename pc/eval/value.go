package eval

import (
	"fmt"
	"strconv"
)

// Value is a dynamic expression result: string, float64, bool, nil,
// []Value, or map[string]Value. The evaluator never needs more types than
// the .pc expression grammar can produce.
type Value any

// Truthy applies the language's truthiness rule: false, 0, "", and nil are
// falsy; everything else (including empty slices/maps) is truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// ToString renders v for text content and attribute values.
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ToNumber coerces v to a float64 for arithmetic. Non-numeric strings and
// unsupported types coerce to 0, matching the language's lenient style
// cascade where a malformed value degrades rather than aborting evaluation.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Iterable returns v's elements for a repeat loop and whether v is
// iterable at all. Maps are not iterable: repeat only ever ranges over
// slices, matching the language's collection-literal grammar.
func Iterable(v Value) ([]Value, bool) {
	items, ok := v.([]Value)
	return items, ok
}

// Equal implements the `==`/`!=` operators' value equality.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case nil:
		return b == nil
	default:
		return false
	}
}
