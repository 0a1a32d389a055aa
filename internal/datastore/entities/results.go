package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ResultsProjectPeriod holds per-project-per-period results. Columns contributed
// by individual subtype modules are kept in Extra.
type ResultsProjectPeriod struct {
	ScenarioID    uint     `gorm:"primaryKey;autoIncrement:false"`
	Project       string   `gorm:"primaryKey;type:varchar(128)"`
	Period        int      `gorm:"primaryKey;autoIncrement:false"`
	RunID         string   `gorm:"type:varchar(36);index"`
	CapacityType  string   `gorm:"type:varchar(64)"`
	CapacityMW    *float64 `gorm:"column:capacity_mw"`
	NewCapacityMW *float64 `gorm:"column:new_capacity_mw"`
	CapacityCost  *float64
	FixedCost     *float64
	Extra         datatypes.JSONMap

	Scenario *Scenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (ResultsProjectPeriod) TableName() string { return "results_project_period" }

// ResultsProjectTimepoint holds per-project-per-timepoint results.
type ResultsProjectTimepoint struct {
	ScenarioID      uint     `gorm:"primaryKey;autoIncrement:false"`
	Project         string   `gorm:"primaryKey;type:varchar(128)"`
	Timepoint       int      `gorm:"primaryKey;autoIncrement:false"`
	RunID           string   `gorm:"type:varchar(36);index"`
	OperationalType string   `gorm:"type:varchar(64)"`
	PowerMW         *float64 `gorm:"column:power_mw"`
	VariableCost    *float64
	Extra           datatypes.JSONMap

	Scenario *Scenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (ResultsProjectTimepoint) TableName() string { return "results_project_timepoint" }

// ResultsTransmissionPeriod holds per-line-per-period results.
type ResultsTransmissionPeriod struct {
	ScenarioID       uint     `gorm:"primaryKey;autoIncrement:false"`
	TransmissionLine string   `gorm:"primaryKey;type:varchar(128)"`
	Period           int      `gorm:"primaryKey;autoIncrement:false"`
	RunID            string   `gorm:"type:varchar(36);index"`
	MinMW            *float64 `gorm:"column:min_mw"`
	MaxMW            *float64 `gorm:"column:max_mw"`
	CapacityCost     *float64
	Extra            datatypes.JSONMap

	Scenario *Scenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (ResultsTransmissionPeriod) TableName() string { return "results_transmission_period" }

// ResultsProjectNewBuild records capacity built per vintage by new-build capacity types.
type ResultsProjectNewBuild struct {
	ScenarioID   uint     `gorm:"primaryKey;autoIncrement:false"`
	Project      string   `gorm:"primaryKey;type:varchar(128)"`
	Vintage      int      `gorm:"primaryKey;autoIncrement:false"`
	RunID        string   `gorm:"type:varchar(36);index"`
	CapacityType string   `gorm:"type:varchar(64)"`
	NewBuildMW   *float64 `gorm:"column:new_build_mw"`
	NewBuildMWh  *float64 `gorm:"column:new_build_mwh"`

	Scenario *Scenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (ResultsProjectNewBuild) TableName() string { return "results_project_new_build" }

// StatusValidation is one persisted input validation problem.
type StatusValidation struct {
	ID          uint      `gorm:"primaryKey"`
	ScenarioID  uint      `gorm:"index;not null"`
	RunID       string    `gorm:"type:varchar(36);index"`
	Subproblem  int       `gorm:"not null;default:1"`
	Stage       int       `gorm:"not null;default:1"`
	Component   string    `gorm:"type:varchar(64)"`
	InputTable  string    `gorm:"type:varchar(128)"`
	Severity    string    `gorm:"type:varchar(8);index"`
	Description string    `gorm:"type:text"`
	Timestamp   time.Time `gorm:"not null"`

	Scenario *Scenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (StatusValidation) TableName() string { return "status_validation" }
