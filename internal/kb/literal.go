package kb

import (
	"encoding"
	"fmt"
	"math"
	"strconv"

	"github.com/google/mangle/ast"
)

// Literal is the value side of a data fact.
type Literal struct {
	c ast.Constant
}

// StringLiteral returns a string literal.
func StringLiteral(s string) Literal { return Literal{c: ast.String(s)} }

// IntLiteral returns an integer literal.
func IntLiteral(n int64) Literal { return Literal{c: ast.Number(n)} }

// FloatLiteral returns a floating point literal. Single precision values are
// widened before they get here.
func FloatLiteral(f float64) Literal { return Literal{c: ast.Float64(f)} }

// BoolLiteral returns /true or /false.
func BoolLiteral(b bool) Literal {
	if b {
		return Literal{c: ast.TrueConstant}
	}
	return Literal{c: ast.FalseConstant}
}

// LiteralOf converts a plain Go value into a literal.
//
// Strings, booleans, integers and floats keep their natural form. Unsigned
// integers above math.MaxInt64 and everything else fall back to the value's
// default string representation. The fallback is lossy: a literal built from
// a time.Time or a complex number is just text to the reasoner.
func LiteralOf(v any) Literal {
	switch x := v.(type) {
	case Literal:
		return x
	case string:
		return StringLiteral(x)
	case bool:
		return BoolLiteral(x)
	case int:
		return IntLiteral(int64(x))
	case int8:
		return IntLiteral(int64(x))
	case int16:
		return IntLiteral(int64(x))
	case int32:
		return IntLiteral(int64(x))
	case int64:
		return IntLiteral(x)
	case uint:
		return UintLiteral(uint64(x))
	case uint8:
		return IntLiteral(int64(x))
	case uint16:
		return IntLiteral(int64(x))
	case uint32:
		return IntLiteral(int64(x))
	case uint64:
		return UintLiteral(x)
	case float32:
		return FloatLiteral(float64(x))
	case float64:
		return FloatLiteral(x)
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return StringLiteral(fmt.Sprintf("%v", v))
		}
		return StringLiteral(string(text))
	default:
		return StringLiteral(fmt.Sprintf("%v", v))
	}
}

// UintLiteral keeps values that fit into an int64 numeric and renders the
// rest as decimal strings.
func UintLiteral(n uint64) Literal {
	if n > math.MaxInt64 {
		return StringLiteral(strconv.FormatUint(n, 10))
	}
	return IntLiteral(int64(n))
}

// Constant exposes the underlying Mangle constant.
func (l Literal) Constant() ast.Constant { return l.c }

func (l Literal) String() string { return l.c.String() }

func constantToInterface(constant ast.Constant) any {
	switch constant.Type {
	case ast.StringType:
		return constant.Symbol
	case ast.NameType:
		return constant.Symbol
	case ast.BytesType:
		return constant.Symbol
	case ast.NumberType:
		return constant.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(constant.NumValue))
	default:
		return constant.String()
	}
}

// ConstantValue is constantToInterface for callers outside the package.
func ConstantValue(c ast.Constant) any { return constantToInterface(c) }

// SameConstant reports whether two constants denote the same value.
func SameConstant(a, b ast.Constant) bool {
	return a.Type == b.Type && a.Symbol == b.Symbol && a.NumValue == b.NumValue
}
