// Package temporal holds periods, timepoints and the vintage lifetime arithmetic
// that decides in which periods built capacity operates or incurs payments.
package temporal

import (
	"fmt"
	"math"
	"slices"

	"github.com/gridforge/gridforge/internal/errors"
)

// Period is an investment period. StartYear and EndYear are both inclusive.
type Period struct {
	ID        int
	StartYear int
	EndYear   int
	// DiscountFactor and YearsRepresented weight the period's annualized costs
	// in the objective.
	DiscountFactor   float64
	YearsRepresented float64
}

// Timepoint is an operational time step inside a period.
type Timepoint struct {
	ID     int
	Period int
	// Weight is the number of hours the timepoint represents per year.
	Weight float64
}

// Vintage is an (entity, build period) pair.
type Vintage struct {
	Entity string
	Year   int
}

// InvalidLifetimeError reports a negative or non-finite lifetime.
type InvalidLifetimeError struct {
	Lifetime float64
}

func (e *InvalidLifetimeError) Error() string {
	return fmt.Sprintf("invalid lifetime %v: must be a non-negative number of years", e.Lifetime)
}

// ErrorCategory marks lifetime errors as configuration errors.
func (e *InvalidLifetimeError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// RelevantPeriods returns the periods p with vintage <= p.StartYear < vintage+lifetime,
// preserving input order. It serves both operational and financial lifetimes.
func RelevantPeriods(periods []Period, vintage int, lifetime float64) ([]Period, error) {
	if lifetime < 0 || math.IsNaN(lifetime) || math.IsInf(lifetime, 0) {
		return nil, &InvalidLifetimeError{Lifetime: lifetime}
	}

	var out []Period
	upper := float64(vintage) + lifetime
	for _, p := range periods {
		if p.StartYear >= vintage && float64(p.StartYear) < upper {
			out = append(out, p)
		}
	}
	return out, nil
}

// RelevantPeriodIDs is RelevantPeriods returning only the period IDs.
func RelevantPeriodIDs(periods []Period, vintage int, lifetime float64) ([]int, error) {
	relevant, err := RelevantPeriods(periods, vintage, lifetime)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(relevant))
	for i, p := range relevant {
		ids[i] = p.ID
	}
	return ids, nil
}

// VintagesRelevantInPeriod inverts a relevant-periods mapping: it returns, in input
// order, the vintages whose relevant periods include period.
func VintagesRelevantInPeriod(vintages []Vintage, relevant map[Vintage][]int, period int) []Vintage {
	var out []Vintage
	for _, v := range vintages {
		if slices.Contains(relevant[v], period) {
			out = append(out, v)
		}
	}
	return out
}

// RelevantPeriodsByVintage computes the relevant period IDs for each vintage
// using a per-entity lifetime lookup.
func RelevantPeriodsByVintage(periods []Period, vintages []Vintage, lifetime func(Vintage) float64) (map[Vintage][]int, error) {
	out := make(map[Vintage][]int, len(vintages))
	for _, v := range vintages {
		ids, err := RelevantPeriodIDs(periods, v.Year, lifetime(v))
		if err != nil {
			return nil, errors.New(err).
				Component("temporal").
				Context("entity", v.Entity).
				Context("vintage", v.Year).
				Build()
		}
		out[v] = ids
	}
	return out, nil
}

// PeriodByID returns the period with the given ID.
func PeriodByID(periods []Period, id int) (Period, bool) {
	for _, p := range periods {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}

// ValidatePeriods checks that periods are strictly increasing by start year and
// that each period ends no earlier than it starts.
func ValidatePeriods(periods []Period) error {
	for i, p := range periods {
		if p.EndYear < p.StartYear {
			return errors.Newf("period %d ends (%d) before it starts (%d)", p.ID, p.EndYear, p.StartYear).
				Component("temporal").
				Category(errors.CategoryValidation).
				Build()
		}
		if i > 0 && p.StartYear <= periods[i-1].StartYear {
			return errors.Newf("periods must be ordered by start year: %d follows %d", p.ID, periods[i-1].ID).
				Component("temporal").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}
