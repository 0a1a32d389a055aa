package dynamic

import (
	"fmt"

	"github.com/gridforge/gridforge/internal/model"
)

// OverlapError reports a member contributed by two different sets to a union
// that must be disjoint.
type OverlapError struct {
	Union  string
	Member string
	First  string
	Second string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %s is contributed by both %s and %s", e.Union, e.Member, e.First, e.Second)
}

// JoinOptions controls JoinSets.
type JoinOptions struct {
	// AssertDisjoint rejects a member found in more than one contributing set.
	AssertDisjoint bool
}

// JoinSets consumes l and returns the union, named union, of the sets named in
// it. Each name is resolved on the model; an undeclared name is an error.
// Members keep the order of first appearance, sets taken in list order.
func JoinSets[T comparable](m *model.Model, l *List, union string, opts JoinOptions) (*model.Set[T], error) {
	names := l.Consume()
	out := model.NewSet[T](union)
	owner := make(map[T]string)

	for _, name := range names {
		s, err := model.SetOf[T](m, name)
		if err != nil {
			return nil, fmt.Errorf("joining %s from %s: %w", union, l.Name(), err)
		}
		for _, item := range s.Items() {
			if prev, seen := owner[item]; seen {
				if opts.AssertDisjoint && prev != name {
					return nil, &OverlapError{Union: union, Member: fmt.Sprint(item), First: prev, Second: name}
				}
				continue
			}
			owner[item] = name
			out.Add(item)
		}
	}
	return out, nil
}
