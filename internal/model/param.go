package model

import "fmt"

// Param is a numeric parameter indexed by K with an optional default.
type Param[K comparable] struct {
	name       string
	values     map[K]float64
	def        float64
	hasDefault bool
}

// NewParam creates a parameter without a default.
func NewParam[K comparable](name string) *Param[K] {
	return &Param[K]{name: name, values: make(map[K]float64)}
}

// NewParamWithDefault creates a parameter whose missing entries read as def.
func NewParamWithDefault[K comparable](name string, def float64) *Param[K] {
	return &Param[K]{name: name, values: make(map[K]float64), def: def, hasDefault: true}
}

// Name returns the parameter name.
func (p *Param[K]) Name() string {
	return p.name
}

// Set assigns a value.
func (p *Param[K]) Set(key K, v float64) {
	p.values[key] = v
}

// Lookup returns the explicit or default value and whether one exists.
func (p *Param[K]) Lookup(key K) (float64, bool) {
	if v, ok := p.values[key]; ok {
		return v, true
	}
	if p.hasDefault {
		return p.def, true
	}
	return 0, false
}

// Get returns the explicit or default value, zero when neither exists.
func (p *Param[K]) Get(key K) float64 {
	v, _ := p.Lookup(key)
	return v
}

// Has reports whether an explicit value was set.
func (p *Param[K]) Has(key K) bool {
	_, ok := p.values[key]
	return ok
}

// Len returns the number of explicit values.
func (p *Param[K]) Len() int {
	return len(p.values)
}

// AddParam declares a parameter on the model.
func AddParam[K comparable](m *Model, p *Param[K]) error {
	if _, ok := m.params[p.name]; ok {
		return &DuplicateComponentError{Kind: "param", Name: p.name}
	}
	m.params[p.name] = p
	return nil
}

// ParamOf resolves a declared parameter by name.
func ParamOf[K comparable](m *Model, name string) (*Param[K], error) {
	raw, ok := m.params[name]
	if !ok {
		return nil, &ComponentNotFoundError{Kind: "param", Name: name}
	}
	p, ok := raw.(*Param[K])
	if !ok {
		return nil, &ComponentTypeError{Kind: "param", Name: name, Want: fmt.Sprintf("%T", p), Got: fmt.Sprintf("%T", raw)}
	}
	return p, nil
}

// MustParam is ParamOf for parameters the caller declared itself; it panics if absent.
func MustParam[K comparable](m *Model, name string) *Param[K] {
	p, err := ParamOf[K](m, name)
	if err != nil {
		panic(err)
	}
	return p
}

// HasParam reports whether a parameter with the name is declared.
func (m *Model) HasParam(name string) bool {
	_, ok := m.params[name]
	return ok
}
