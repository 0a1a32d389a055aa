package model

import "fmt"

// Set is an insertion-ordered, duplicate-free collection of index members.
type Set[T comparable] struct {
	name  string
	items []T
	index map[T]struct{}
}

// NewSet creates a named set with optional initial members.
func NewSet[T comparable](name string, items ...T) *Set[T] {
	s := &Set[T]{name: name, index: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Name returns the set name.
func (s *Set[T]) Name() string {
	return s.name
}

// Add inserts item and reports whether it was new.
func (s *Set[T]) Add(item T) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Contains reports membership.
func (s *Set[T]) Contains(item T) bool {
	_, ok := s.index[item]
	return ok
}

// Items returns a copy of the members in insertion order.
func (s *Set[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of members.
func (s *Set[T]) Len() int {
	return len(s.items)
}

// Filter returns the members satisfying keep, in order.
func (s *Set[T]) Filter(keep func(T) bool) []T {
	var out []T
	for _, item := range s.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// DuplicateComponentError reports a second registration under an existing name.
type DuplicateComponentError struct {
	Kind string
	Name string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("%s %q is already declared on the model", e.Kind, e.Name)
}

// ComponentNotFoundError reports a lookup of an undeclared set, param or expression.
type ComponentNotFoundError struct {
	Kind string
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("%s %q is not declared on the model", e.Kind, e.Name)
}

// ComponentTypeError reports a typed lookup that found a component of another type.
type ComponentTypeError struct {
	Kind string
	Name string
	Want string
	Got  string
}

func (e *ComponentTypeError) Error() string {
	return fmt.Sprintf("%s %q has type %s, want %s", e.Kind, e.Name, e.Got, e.Want)
}

// AddSet declares a set on the model.
func AddSet[T comparable](m *Model, s *Set[T]) error {
	if _, ok := m.sets[s.name]; ok {
		return &DuplicateComponentError{Kind: "set", Name: s.name}
	}
	m.sets[s.name] = s
	m.setOrder = append(m.setOrder, s.name)
	return nil
}

// SetOf resolves a declared set by name.
func SetOf[T comparable](m *Model, name string) (*Set[T], error) {
	raw, ok := m.sets[name]
	if !ok {
		return nil, &ComponentNotFoundError{Kind: "set", Name: name}
	}
	s, ok := raw.(*Set[T])
	if !ok {
		return nil, &ComponentTypeError{Kind: "set", Name: name, Want: fmt.Sprintf("%T", s), Got: fmt.Sprintf("%T", raw)}
	}
	return s, nil
}

// HasSet reports whether a set with the name is declared.
func (m *Model) HasSet(name string) bool {
	_, ok := m.sets[name]
	return ok
}

// SetNames returns declared set names in declaration order.
func (m *Model) SetNames() []string {
	out := make([]string, len(m.setOrder))
	copy(out, m.setOrder)
	return out
}

// MustSet is SetOf for sets the caller knows are declared; it panics if absent.
func MustSet[T comparable](m *Model, name string) *Set[T] {
	s, err := SetOf[T](m, name)
	if err != nil {
		panic(err)
	}
	return s
}
