package model

import (
	"maps"
	"slices"
)

// VarID identifies a decision variable within one Model.
type VarID int

// LinExpr is a symbolic linear expression: sum(coef * var) + Constant.
// Plus, Scale and Sum return fresh expressions; AddTerm and Add mutate the receiver
// and must only be used on an expression the caller owns.
type LinExpr struct {
	Terms    map[VarID]float64
	Constant float64
}

// Zero returns the empty expression.
func Zero() LinExpr {
	return LinExpr{}
}

// Const returns a constant expression.
func Const(c float64) LinExpr {
	return LinExpr{Constant: c}
}

// Term returns coef * v.
func Term(v VarID, coef float64) LinExpr {
	return LinExpr{Terms: map[VarID]float64{v: coef}}
}

// AddTerm adds coef * v in place.
func (e *LinExpr) AddTerm(v VarID, coef float64) {
	if coef == 0 {
		return
	}
	if e.Terms == nil {
		e.Terms = make(map[VarID]float64)
	}
	e.Terms[v] += coef
	if e.Terms[v] == 0 {
		delete(e.Terms, v)
	}
}

// Add adds o in place.
func (e *LinExpr) Add(o LinExpr) {
	for v, c := range o.Terms {
		e.AddTerm(v, c)
	}
	e.Constant += o.Constant
}

// Plus returns e + o.
func (e LinExpr) Plus(o LinExpr) LinExpr {
	out := e.Clone()
	out.Add(o)
	return out
}

// Scale returns f * e.
func (e LinExpr) Scale(f float64) LinExpr {
	out := LinExpr{Constant: e.Constant * f}
	for v, c := range e.Terms {
		out.AddTerm(v, c*f)
	}
	return out
}

// Clone returns a deep copy.
func (e LinExpr) Clone() LinExpr {
	return LinExpr{Terms: maps.Clone(e.Terms), Constant: e.Constant}
}

// Coefficient returns the coefficient of v, zero if absent.
func (e LinExpr) Coefficient(v VarID) float64 {
	return e.Terms[v]
}

// Vars returns the variables with non-zero coefficients in ascending order.
func (e LinExpr) Vars() []VarID {
	return slices.Sorted(maps.Keys(e.Terms))
}

// IsZero reports whether the expression has no terms and a zero constant.
func (e LinExpr) IsZero() bool {
	return len(e.Terms) == 0 && e.Constant == 0
}

// IsConstant reports whether the expression has no variable terms.
func (e LinExpr) IsConstant() bool {
	return len(e.Terms) == 0
}

// Evaluate computes the expression value under a solution.
func (e LinExpr) Evaluate(values map[VarID]float64) float64 {
	total := e.Constant
	for v, c := range e.Terms {
		total += c * values[v]
	}
	return total
}

// Sum adds expressions into a new expression.
func Sum(exprs ...LinExpr) LinExpr {
	var out LinExpr
	for _, e := range exprs {
		out.Add(e)
	}
	return out
}
