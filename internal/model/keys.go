package model

import "fmt"

// EntityPeriod indexes per-entity-per-period components. Vintages use the same key
// with Period holding the build period.
type EntityPeriod struct {
	Entity string
	Period int
}

func (k EntityPeriod) String() string {
	return fmt.Sprintf("%s,%d", k.Entity, k.Period)
}

// EntityTimepoint indexes per-entity-per-timepoint components.
type EntityTimepoint struct {
	Entity    string
	Timepoint int
}

func (k EntityTimepoint) String() string {
	return fmt.Sprintf("%s,%d", k.Entity, k.Timepoint)
}

// ZoneTimepoint indexes load-balance components.
type ZoneTimepoint struct {
	Zone      string
	Timepoint int
}

func (k ZoneTimepoint) String() string {
	return fmt.Sprintf("%s,%d", k.Zone, k.Timepoint)
}

// Name is a single-component key.
type Name string

func (k Name) String() string {
	return string(k)
}

// Int is a single integer key such as a period or timepoint.
type Int int

func (k Int) String() string {
	return fmt.Sprintf("%d", int(k))
}
