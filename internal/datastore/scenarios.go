package datastore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
)

// scenarioCacheTTL bounds how long a resolved scenario is reused.
const scenarioCacheTTL = 5 * time.Minute

// SubscenarioIDs are the subscenario ids a scenario selects. Zero means none.
type SubscenarioIDs struct {
	Temporal                 uint
	Load                     uint
	ProjectPortfolio         uint
	ProjectOperationalChars  uint
	ProjectSpecifiedCapacity uint
	ProjectNewCost           uint
	TransmissionPortfolio    uint
	TransmissionCapacity     uint
	Reserve                  uint
}

// Features are the optional feature groups a scenario turns on.
type Features struct {
	Transmission bool
	Reserves     bool
}

// ResolvedScenario is a scenario row with its references dereferenced.
type ResolvedScenario struct {
	ID       uint
	Name     string
	IDs      SubscenarioIDs
	Features Features
}

// ScenarioSpec describes a scenario to create.
type ScenarioSpec struct {
	Name        string
	Description string
	IDs         SubscenarioIDs
	Features    Features
}

// ScenarioStore resolves scenario names and caches the result.
type ScenarioStore struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewScenarioStore creates a store on db.
func NewScenarioStore(db *gorm.DB) *ScenarioStore {
	// No cleanup interval: expired items are dropped on access, no janitor goroutine.
	return &ScenarioStore{db: db, cache: cache.New(scenarioCacheTTL, 0)}
}

// Invalidate drops every cached scenario.
func (s *ScenarioStore) Invalidate() {
	s.cache.Flush()
}

// Resolve looks up a scenario by name and checks that every subscenario the
// build needs is referenced.
func (s *ScenarioStore) Resolve(ctx context.Context, name string) (ResolvedScenario, error) {
	if cached, found := s.cache.Get(name); found {
		return cached.(ResolvedScenario), nil
	}

	var row entities.Scenario
	result := s.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&row)
	if result.Error != nil {
		return ResolvedScenario{}, dbError(result.Error, "resolve_scenario", errors.PriorityHigh, "scenario", name)
	}
	if result.RowsAffected == 0 {
		return ResolvedScenario{}, errors.Newf("scenario %q not found", name).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("scenario", name).
			Build()
	}

	resolved := resolvedFromRow(&row)
	if err := checkRequired(resolved); err != nil {
		return ResolvedScenario{}, err
	}

	s.cache.Set(name, resolved, cache.DefaultExpiration)
	return resolved, nil
}

// Create inserts a scenario and returns its id.
func (s *ScenarioStore) Create(ctx context.Context, spec ScenarioSpec) (uint, error) {
	if spec.Name == "" {
		return 0, errors.ValidationError("scenario name is empty")
	}
	row := entities.Scenario{
		Name:                               spec.Name,
		Description:                        spec.Description,
		OfTransmission:                     spec.Features.Transmission,
		OfReserves:                         spec.Features.Reserves,
		TemporalScenarioID:                 optionalID(spec.IDs.Temporal),
		LoadScenarioID:                     optionalID(spec.IDs.Load),
		ProjectPortfolioScenarioID:         optionalID(spec.IDs.ProjectPortfolio),
		ProjectOperationalCharsScenarioID:  optionalID(spec.IDs.ProjectOperationalChars),
		ProjectSpecifiedCapacityScenarioID: optionalID(spec.IDs.ProjectSpecifiedCapacity),
		ProjectNewCostScenarioID:           optionalID(spec.IDs.ProjectNewCost),
		TransmissionPortfolioScenarioID:    optionalID(spec.IDs.TransmissionPortfolio),
		TransmissionCapacityScenarioID:     optionalID(spec.IDs.TransmissionCapacity),
		ReserveScenarioID:                  optionalID(spec.IDs.Reserve),
	}
	// Omit associations so gorm does not upsert subscenario rows.
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return 0, dbError(err, "create_scenario", errors.PriorityMedium, "scenario", spec.Name)
	}
	s.cache.Delete(spec.Name)
	return row.ID, nil
}

// List returns all scenario names, ordered by id.
func (s *ScenarioStore) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&entities.Scenario{}).Order("id").Pluck("name", &names).Error; err != nil {
		return nil, dbError(err, "list_scenarios", errors.PriorityLow)
	}
	return names, nil
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func resolvedFromRow(row *entities.Scenario) ResolvedScenario {
	return ResolvedScenario{
		ID:   row.ID,
		Name: row.Name,
		IDs: SubscenarioIDs{
			Temporal:                 derefID(row.TemporalScenarioID),
			Load:                     derefID(row.LoadScenarioID),
			ProjectPortfolio:         derefID(row.ProjectPortfolioScenarioID),
			ProjectOperationalChars:  derefID(row.ProjectOperationalCharsScenarioID),
			ProjectSpecifiedCapacity: derefID(row.ProjectSpecifiedCapacityScenarioID),
			ProjectNewCost:           derefID(row.ProjectNewCostScenarioID),
			TransmissionPortfolio:    derefID(row.TransmissionPortfolioScenarioID),
			TransmissionCapacity:     derefID(row.TransmissionCapacityScenarioID),
			Reserve:                  derefID(row.ReserveScenarioID),
		},
		Features: Features{
			Transmission: row.OfTransmission,
			Reserves:     row.OfReserves,
		},
	}
}

// checkRequired rejects scenarios missing a reference the build cannot do
// without. A NULL reference is also what a rebuild in progress looks like.
func checkRequired(r ResolvedScenario) error {
	type requirement struct {
		name string
		id   uint
	}
	required := []requirement{
		{SubscenarioTemporal, r.IDs.Temporal},
		{SubscenarioLoad, r.IDs.Load},
		{SubscenarioProjectPortfolio, r.IDs.ProjectPortfolio},
		{SubscenarioProjectOperationalChars, r.IDs.ProjectOperationalChars},
	}
	if r.Features.Transmission {
		required = append(required, requirement{SubscenarioTransmissionPortfolio, r.IDs.TransmissionPortfolio})
	}
	if r.Features.Reserves {
		required = append(required, requirement{SubscenarioReserve, r.IDs.Reserve})
	}

	for _, req := range required {
		if req.id == 0 {
			return errors.Newf("scenario %q has no %s subscenario", r.Name, req.name).
				Component("datastore").
				Category(errors.CategoryState).
				Context("scenario", r.Name).
				Context("subscenario", req.name).
				Build()
		}
	}
	return nil
}

// scenarioRef is a scenario referencing a subscenario id.
type scenarioRef struct {
	ID   uint
	Name string
}

// referencingScenarios lists scenarios whose column points at id.
func referencingScenarios(db *gorm.DB, sub Subscenario, id uint) ([]scenarioRef, error) {
	if !sub.Referenced() {
		return nil, nil
	}
	var refs []scenarioRef
	err := db.Model(&entities.Scenario{}).
		Select("id", "name").
		Where(sub.Column+" = ?", id).
		Order("id").
		Scan(&refs).Error
	if err != nil {
		return nil, dbError(err, "find_referencing_scenarios", errors.PriorityHigh, "subscenario", sub.Name)
	}
	return refs, nil
}
