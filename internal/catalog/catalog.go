// Package catalog assembles the subtype modules shipped with gridforge.
package catalog

import (
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/subtype/capacity"
	"github.com/gridforge/gridforge/internal/subtype/operations"
	"github.com/gridforge/gridforge/internal/subtype/reserves"
	"github.com/gridforge/gridforge/internal/subtype/txtypes"
)

// Default returns a catalog with every built-in subtype registered.
func Default() *subtype.Catalog {
	c := subtype.NewCatalog()
	capacity.Register(c)
	operations.Register(c)
	reserves.Register(c)
	txtypes.Register(c)
	return c
}
