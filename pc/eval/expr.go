package eval

import "github.com/c360studio/pcforge/pc/ast"

// evalExpression computes expr's value against env. It returns an *EvalError
// for unresolved variables and divide-by-zero; the caller decides whether to
// surface that as a localized Error VNode or propagate it.
func evalExpression(expr ast.Expression, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitString:
			return e.Str, nil
		case ast.LitNumber:
			return e.Num, nil
		case ast.LitBool:
			return e.Bool, nil
		}
		return nil, nil

	case *ast.Variable:
		v, ok := env.Get(e.Name)
		if !ok {
			return nil, errUnknownVariable(e.Name)
		}
		return v, nil

	case *ast.MemberAccess:
		base, err := evalExpression(e.Base, env)
		if err != nil {
			return nil, err
		}
		cur := base
		for _, field := range e.Path {
			m, ok := cur.(map[string]Value)
			if !ok {
				return nil, errUnknownVariable(field)
			}
			v, ok := m[field]
			if !ok {
				return nil, errUnknownVariable(field)
			}
			cur = v
		}
		return cur, nil

	case *ast.BinaryOp:
		return evalBinary(e, env)

	case *ast.Call:
		return evalCall(e, env)

	case *ast.Template:
		return evalTemplate(e, env)

	default:
		return nil, nil
	}
}

func evalBinary(e *ast.BinaryOp, env *Env) (Value, error) {
	// Short-circuit boolean operators evaluate rhs lazily.
	if e.Op == "&&" {
		lhs, err := evalExpression(e.LHS, env)
		if err != nil {
			return nil, err
		}
		if !Truthy(lhs) {
			return false, nil
		}
		rhs, err := evalExpression(e.RHS, env)
		if err != nil {
			return nil, err
		}
		return Truthy(rhs), nil
	}
	if e.Op == "||" {
		lhs, err := evalExpression(e.LHS, env)
		if err != nil {
			return nil, err
		}
		if Truthy(lhs) {
			return true, nil
		}
		rhs, err := evalExpression(e.RHS, env)
		if err != nil {
			return nil, err
		}
		return Truthy(rhs), nil
	}

	lhs, err := evalExpression(e.LHS, env)
	if err != nil {
		return nil, err
	}
	rhs, err := evalExpression(e.RHS, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "==":
		return Equal(lhs, rhs), nil
	case "!=":
		return !Equal(lhs, rhs), nil
	case "+":
		// String concatenation if either side is a string; numeric add otherwise.
		if ls, ok := lhs.(string); ok {
			return ls + ToString(rhs), nil
		}
		if rs, ok := rhs.(string); ok {
			return ToString(lhs) + rs, nil
		}
		return ToNumber(lhs) + ToNumber(rhs), nil
	case "-":
		return ToNumber(lhs) - ToNumber(rhs), nil
	case "*":
		return ToNumber(lhs) * ToNumber(rhs), nil
	case "/":
		divisor := ToNumber(rhs)
		if divisor == 0 {
			return nil, errDivideByZero()
		}
		return ToNumber(lhs) / divisor, nil
	case "<":
		return ToNumber(lhs) < ToNumber(rhs), nil
	case "<=":
		return ToNumber(lhs) <= ToNumber(rhs), nil
	case ">":
		return ToNumber(lhs) > ToNumber(rhs), nil
	case ">=":
		return ToNumber(lhs) >= ToNumber(rhs), nil
	default:
		return nil, nil
	}
}

// builtins are the call-expression names the evaluator resolves itself.
// Asset-reference calls (image/font/video/audio/asset) with a single
// string-literal argument are not builtins: evalCall returns that argument
// as the logical path.
var builtins = map[string]func(args []Value) Value{
	"upper": func(args []Value) Value {
		if len(args) == 0 {
			return ""
		}
		s := []rune(ToString(args[0]))
		for i, r := range s {
			if r >= 'a' && r <= 'z' {
				s[i] = r - 32
			}
		}
		return string(s)
	},
	"lower": func(args []Value) Value {
		if len(args) == 0 {
			return ""
		}
		s := []rune(ToString(args[0]))
		for i, r := range s {
			if r >= 'A' && r <= 'Z' {
				s[i] = r + 32
			}
		}
		return string(s)
	},
	"len": func(args []Value) Value {
		if len(args) == 0 {
			return 0.0
		}
		if items, ok := Iterable(args[0]); ok {
			return float64(len(items))
		}
		return float64(len(ToString(args[0])))
	},
}

func evalCall(e *ast.Call, env *Env) (Value, error) {
	if kind, ok := assetKinds[e.Name]; ok {
		_ = kind
		if len(e.Args) == 1 {
			if lit, ok := e.Args[0].(*ast.Literal); ok && lit.Kind == ast.LitString {
				return lit.Str, nil
			}
		}
	}

	fn, ok := builtins[e.Name]
	if !ok {
		return nil, errUnknownVariable(e.Name)
	}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := evalExpression(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fn(args), nil
}

var assetKinds = map[string]ast.AssetType{
	"image": ast.AssetImage,
	"font":  ast.AssetFont,
	"video": ast.AssetVideo,
	"audio": ast.AssetAudio,
	"asset": ast.AssetOther,
}

func evalTemplate(e *ast.Template, env *Env) (Value, error) {
	out := e.Literals[0]
	for i, expr := range e.Exprs {
		v, err := evalExpression(expr, env)
		if err != nil {
			return nil, err
		}
		out += ToString(v)
		out += e.Literals[i+1]
	}
	return out, nil
}
