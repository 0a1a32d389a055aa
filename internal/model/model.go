// Package model is the algebraic layer models are assembled into: named sets,
// parameters, variables, linear expressions and constraints, written out as an
// LP file for an external solver.
package model

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// VarKind is the domain of a decision variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// Var is a decision variable.
type Var struct {
	ID     VarID
	Family string
	Index  string
	Lower  float64
	Upper  float64
	Kind   VarKind
}

// Name returns the LP-safe name Family(index).
func (v Var) Name() string {
	return componentName(v.Family, v.Index)
}

// Bounds configures a new variable.
type Bounds struct {
	Lower float64
	Upper float64
	Kind  VarKind
}

// NonNegative is [0, +inf) continuous.
func NonNegative() Bounds {
	return Bounds{Lower: 0, Upper: math.Inf(1)}
}

// BinaryVar is a {0,1} variable.
func BinaryVar() Bounds {
	return Bounds{Lower: 0, Upper: 1, Kind: Binary}
}

// Sense is a constraint relation.
type Sense string

const (
	LessEqual    Sense = "<="
	GreaterEqual Sense = ">="
	Equal        Sense = "="
)

// Constraint is Expr Sense RHS with the expression constant folded into RHS.
type Constraint struct {
	Family string
	Index  string
	Expr   LinExpr
	Sense  Sense
	RHS    float64
}

// Name returns the LP-safe name Family(index).
func (c Constraint) Name() string {
	return componentName(c.Family, c.Index)
}

// Model holds every component of one scenario build.
type Model struct {
	Name string

	sets     map[string]any
	setOrder []string
	params   map[string]any

	vars      []Var
	varByName map[string]VarID

	exprs     map[string]map[string]LinExpr
	exprOrder []string

	constraints []Constraint
	consByName  map[string]int

	objective LinExpr
}

// New creates an empty model.
func New(name string) *Model {
	return &Model{
		Name:       name,
		sets:       make(map[string]any),
		params:     make(map[string]any),
		varByName:  make(map[string]VarID),
		exprs:      make(map[string]map[string]LinExpr),
		consByName: make(map[string]int),
	}
}

// AddVar declares a variable family member and returns its ID.
func (m *Model) AddVar(family string, index fmt.Stringer, b Bounds) (VarID, error) {
	name := componentName(family, index.String())
	if _, ok := m.varByName[name]; ok {
		return 0, &DuplicateComponentError{Kind: "variable", Name: name}
	}
	if b.Lower > b.Upper {
		return 0, fmt.Errorf("variable %s: lower bound %v exceeds upper bound %v", name, b.Lower, b.Upper)
	}
	id := VarID(len(m.vars))
	m.vars = append(m.vars, Var{ID: id, Family: family, Index: index.String(), Lower: b.Lower, Upper: b.Upper, Kind: b.Kind})
	m.varByName[name] = id
	return id, nil
}

// VarRef returns the ID of a declared variable.
func (m *Model) VarRef(family string, index fmt.Stringer) (VarID, bool) {
	id, ok := m.varByName[componentName(family, index.String())]
	return id, ok
}

// VarTerm returns coef * family[index], or an empty expression if the variable
// is not declared. Rules use it for variables their own module declared.
func (m *Model) VarTerm(family string, index fmt.Stringer, coef float64) LinExpr {
	id, ok := m.VarRef(family, index)
	if !ok {
		return Zero()
	}
	return Term(id, coef)
}

// Var returns the variable with the given ID.
func (m *Model) Var(id VarID) Var {
	return m.vars[id]
}

// Vars returns all variables in declaration order.
func (m *Model) Vars() []Var {
	return slices.Clone(m.vars)
}

// VarsInFamily returns the variables of one family in declaration order.
func (m *Model) VarsInFamily(family string) []Var {
	var out []Var
	for _, v := range m.vars {
		if v.Family == family {
			out = append(out, v)
		}
	}
	return out
}

// SetExpression stores a named expression. Re-setting an index replaces it.
func (m *Model) SetExpression(family string, index fmt.Stringer, e LinExpr) {
	fam, ok := m.exprs[family]
	if !ok {
		fam = make(map[string]LinExpr)
		m.exprs[family] = fam
		m.exprOrder = append(m.exprOrder, family)
	}
	fam[index.String()] = e.Clone()
}

// Expression returns a copy of a stored expression.
func (m *Model) Expression(family string, index fmt.Stringer) (LinExpr, bool) {
	e, ok := m.exprs[family][index.String()]
	if !ok {
		return LinExpr{}, false
	}
	return e.Clone(), true
}

// ExpressionFamilies returns expression family names in declaration order.
func (m *Model) ExpressionFamilies() []string {
	return slices.Clone(m.exprOrder)
}

// AddConstraint declares lhs sense rhs.
func (m *Model) AddConstraint(family string, index fmt.Stringer, lhs LinExpr, sense Sense, rhs float64) error {
	name := componentName(family, index.String())
	if _, ok := m.consByName[name]; ok {
		return &DuplicateComponentError{Kind: "constraint", Name: name}
	}
	expr := lhs.Clone()
	rhs -= expr.Constant
	expr.Constant = 0
	m.consByName[name] = len(m.constraints)
	m.constraints = append(m.constraints, Constraint{Family: family, Index: index.String(), Expr: expr, Sense: sense, RHS: rhs})
	return nil
}

// Constraints returns all constraints in declaration order.
func (m *Model) Constraints() []Constraint {
	return slices.Clone(m.constraints)
}

// Constraint returns a named constraint.
func (m *Model) Constraint(family string, index fmt.Stringer) (Constraint, bool) {
	i, ok := m.consByName[componentName(family, index.String())]
	if !ok {
		return Constraint{}, false
	}
	return m.constraints[i], true
}

// SetObjective sets the minimized objective.
func (m *Model) SetObjective(e LinExpr) {
	m.objective = e.Clone()
}

// Objective returns the minimized objective.
func (m *Model) Objective() LinExpr {
	return m.objective.Clone()
}

// Stats summarizes model size.
type Stats struct {
	Sets        int
	Params      int
	Vars        int
	Integers    int
	Constraints int
}

// Stats returns component counts.
func (m *Model) Stats() Stats {
	s := Stats{Sets: len(m.sets), Params: len(m.params), Vars: len(m.vars), Constraints: len(m.constraints)}
	for _, v := range m.vars {
		if v.Kind != Continuous {
			s.Integers++
		}
	}
	return s
}

// escapeName keeps letters, digits, '_', ',' and '.' and writes every other
// byte as ~XX so distinct families and indexes never share an LP name.
func escapeName(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if !nameSafe(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if nameSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "~%02X", c)
	}
	return b.String()
}

func nameSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '_' || c == ',' || c == '.'
}

func componentName(family, index string) string {
	if index == "" {
		return escapeName(family)
	}
	return escapeName(family) + "(" + escapeName(index) + ")"
}
