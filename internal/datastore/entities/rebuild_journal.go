package entities

import (
	"time"

	"gorm.io/datatypes"
)

// RebuildState is a step of the subscenario rebuild pipeline.
type RebuildState string

const (
	RebuildStateIdle                RebuildState = "idle"
	RebuildStateResolving           RebuildState = "resolving"
	RebuildStateConfirmingOverwrite RebuildState = "confirming_overwrite"
	RebuildStateNullifying          RebuildState = "nullifying"
	RebuildStateDeleting            RebuildState = "deleting"
	RebuildStateImporting           RebuildState = "importing"
	RebuildStateRestoring           RebuildState = "restoring"
	RebuildStateFailed              RebuildState = "failed"
)

// RebuildJournal records one pipeline run. While a run holds scenario foreign
// keys nulled, OriginalRefs maps scenario id to the value to restore, so a run
// that died before restoring can be recovered.
type RebuildJournal struct {
	RunID         string       `gorm:"primaryKey;type:varchar(36)"`
	Subscenario   string       `gorm:"type:varchar(64);not null;index:idx_rebuild_target,priority:1"`
	SubscenarioID uint         `gorm:"not null;index:idx_rebuild_target,priority:2"`
	Project       string       `gorm:"type:varchar(128);index:idx_rebuild_target,priority:3"`
	State         RebuildState `gorm:"type:varchar(24);not null;default:'idle';index"`
	Strategy      string       `gorm:"type:varchar(16)"`
	Column        string       `gorm:"column:fk_column;type:varchar(64)"`
	OriginalRefs  datatypes.JSONMap
	Restored      bool   `gorm:"not null;default:false"`
	ErrorMessage  string `gorm:"type:text"`
	StartedAt     time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (RebuildJournal) TableName() string { return "rebuild_journal" }

// IsActive reports whether the run is between Resolving and Idle.
func (j *RebuildJournal) IsActive() bool {
	switch j.State {
	case RebuildStateIdle, RebuildStateFailed:
		return false
	default:
		return true
	}
}

// NeedsRecovery reports whether the run left scenario references nulled.
func (j *RebuildJournal) NeedsRecovery() bool {
	return len(j.OriginalRefs) > 0 && !j.Restored
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&SubscenarioTemporal{},
		&SubscenarioLoad{},
		&SubscenarioProjectPortfolio{},
		&SubscenarioProjectOperationalChars{},
		&SubscenarioProjectSpecifiedCapacity{},
		&SubscenarioProjectNewCost{},
		&SubscenarioTransmissionPortfolio{},
		&SubscenarioTransmissionCapacity{},
		&SubscenarioReserve{},
		&SubscenarioProjectVariableProfile{},
		&Scenario{},
		&InputsTemporalPeriod{},
		&InputsTemporalTimepoint{},
		&InputsLoadZone{},
		&InputsLoad{},
		&InputsProjectPortfolio{},
		&InputsProjectOperationalChars{},
		&InputsProjectSpecifiedCapacity{},
		&InputsProjectNewCost{},
		&InputsProjectVariableProfile{},
		&InputsTransmissionPortfolio{},
		&InputsTransmissionCapacity{},
		&InputsReserveProject{},
		&InputsReserveRequirement{},
		&ResultsProjectPeriod{},
		&ResultsProjectTimepoint{},
		&ResultsTransmissionPeriod{},
		&ResultsProjectNewBuild{},
		&StatusValidation{},
		&RebuildJournal{},
	}
}
