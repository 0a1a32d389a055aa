package entities

// InputsTemporalPeriod is one investment period.
type InputsTemporalPeriod struct {
	TemporalScenarioID uint    `gorm:"primaryKey;autoIncrement:false"`
	Period             int     `gorm:"primaryKey;autoIncrement:false"`
	StartYear          int     `gorm:"not null"`
	EndYear            int     `gorm:"not null"`
	DiscountFactor     float64 `gorm:"not null;default:1"`
	YearsRepresented   float64 `gorm:"not null;default:1"`

	Subscenario *SubscenarioTemporal `gorm:"foreignKey:TemporalScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsTemporalPeriod) TableName() string { return "inputs_temporal_periods" }

// InputsTemporalTimepoint is one operational timepoint.
type InputsTemporalTimepoint struct {
	TemporalScenarioID uint    `gorm:"primaryKey;autoIncrement:false"`
	Timepoint          int     `gorm:"primaryKey;autoIncrement:false"`
	Period             int     `gorm:"not null"`
	Weight             float64 `gorm:"not null;default:1"`

	Subscenario *SubscenarioTemporal `gorm:"foreignKey:TemporalScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsTemporalTimepoint) TableName() string { return "inputs_temporal_timepoints" }

// InputsLoadZone is a load zone and its unserved-energy penalty.
type InputsLoadZone struct {
	LoadScenarioID              uint     `gorm:"primaryKey;autoIncrement:false"`
	LoadZone                    string   `gorm:"primaryKey;type:varchar(128)"`
	UnservedEnergyPenaltyPerMWh *float64 `gorm:"column:unserved_energy_penalty_per_mwh"`

	Subscenario *SubscenarioLoad `gorm:"foreignKey:LoadScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsLoadZone) TableName() string { return "inputs_load_zones" }

// InputsLoad is the load of a zone in a timepoint.
type InputsLoad struct {
	LoadScenarioID uint    `gorm:"primaryKey;autoIncrement:false"`
	LoadZone       string  `gorm:"primaryKey;type:varchar(128)"`
	Timepoint      int     `gorm:"primaryKey;autoIncrement:false"`
	LoadMW         float64 `gorm:"column:load_mw;not null"`

	Subscenario *SubscenarioLoad `gorm:"foreignKey:LoadScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsLoad) TableName() string { return "inputs_load" }

// InputsProjectPortfolio assigns a capacity type to a project.
type InputsProjectPortfolio struct {
	ProjectPortfolioScenarioID uint   `gorm:"primaryKey;autoIncrement:false"`
	Project                    string `gorm:"primaryKey;type:varchar(128)"`
	CapacityType               string `gorm:"type:varchar(64);not null"`

	Subscenario *SubscenarioProjectPortfolio `gorm:"foreignKey:ProjectPortfolioScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsProjectPortfolio) TableName() string { return "inputs_project_portfolios" }

// InputsProjectOperationalChars holds a project's operational type and parameters.
type InputsProjectOperationalChars struct {
	ProjectOperationalCharsScenarioID uint     `gorm:"primaryKey;autoIncrement:false"`
	Project                           string   `gorm:"primaryKey;type:varchar(128)"`
	OperationalType                   string   `gorm:"type:varchar(64);not null"`
	LoadZone                          string   `gorm:"type:varchar(128);not null"`
	VariableOMCostPerMWh              *float64 `gorm:"column:variable_om_cost_per_mwh"`
	MinStableLevelFraction            *float64
	ChargingEfficiency                *float64
	DischargingEfficiency             *float64
	VariableProfileScenarioID         *uint

	Subscenario *SubscenarioProjectOperationalChars `gorm:"foreignKey:ProjectOperationalCharsScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsProjectOperationalChars) TableName() string {
	return "inputs_project_operational_chars"
}

// InputsProjectSpecifiedCapacity is pre-existing capacity in a period.
type InputsProjectSpecifiedCapacity struct {
	ProjectSpecifiedCapacityScenarioID uint     `gorm:"primaryKey;autoIncrement:false"`
	Project                            string   `gorm:"primaryKey;type:varchar(128)"`
	Period                             int      `gorm:"primaryKey;autoIncrement:false"`
	SpecifiedCapacityMW                float64  `gorm:"column:specified_capacity_mw;not null"`
	SpecifiedCapacityMWh               *float64 `gorm:"column:specified_capacity_mwh"`
	FixedCostPerMWYr                   *float64 `gorm:"column:fixed_cost_per_mw_yr"`
	FixedCostPerMWhYr                  *float64 `gorm:"column:fixed_cost_per_mwh_yr"`

	Subscenario *SubscenarioProjectSpecifiedCapacity `gorm:"foreignKey:ProjectSpecifiedCapacityScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsProjectSpecifiedCapacity) TableName() string {
	return "inputs_project_specified_capacity"
}

// InputsProjectNewCost is a buildable vintage with its lifetimes and costs.
type InputsProjectNewCost struct {
	ProjectNewCostScenarioID   uint    `gorm:"primaryKey;autoIncrement:false"`
	Project                    string  `gorm:"primaryKey;type:varchar(128)"`
	Vintage                    int     `gorm:"primaryKey;autoIncrement:false"`
	LifetimeYrs                float64 `gorm:"not null"`
	FinancialLifetimeYrs       *float64
	AnnualizedRealCostPerMWYr  float64  `gorm:"column:annualized_real_cost_per_mw_yr;not null"`
	AnnualizedRealCostPerMWhYr *float64 `gorm:"column:annualized_real_cost_per_mwh_yr"`
	FixedCostPerMWYr           *float64 `gorm:"column:fixed_cost_per_mw_yr"`
	BuildSizeMW                *float64 `gorm:"column:build_size_mw"`
	MaxBuildMW                 *float64 `gorm:"column:max_build_mw"`
	MinCumulativeNewBuildMW    *float64 `gorm:"column:min_cumulative_new_build_mw"`
	MaxCumulativeNewBuildMW    *float64 `gorm:"column:max_cumulative_new_build_mw"`

	Subscenario *SubscenarioProjectNewCost `gorm:"foreignKey:ProjectNewCostScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsProjectNewCost) TableName() string { return "inputs_project_new_cost" }

// InputsProjectVariableProfile is a capacity factor for a variable project.
type InputsProjectVariableProfile struct {
	Project                   string  `gorm:"primaryKey;type:varchar(128)"`
	VariableProfileScenarioID uint    `gorm:"primaryKey;autoIncrement:false"`
	Timepoint                 int     `gorm:"primaryKey;autoIncrement:false"`
	CapFactor                 float64 `gorm:"not null"`

	Subscenario *SubscenarioProjectVariableProfile `gorm:"foreignKey:Project,VariableProfileScenarioID;references:ProjectName,SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsProjectVariableProfile) TableName() string {
	return "inputs_project_variable_profiles"
}

// InputsTransmissionPortfolio describes a line and its subtypes.
type InputsTransmissionPortfolio struct {
	TransmissionPortfolioScenarioID uint   `gorm:"primaryKey;autoIncrement:false"`
	TransmissionLine                string `gorm:"primaryKey;type:varchar(128)"`
	CapacityType                    string `gorm:"type:varchar(64);not null"`
	OperationalType                 string `gorm:"type:varchar(64);not null"`
	LoadZoneFrom                    string `gorm:"type:varchar(128);not null"`
	LoadZoneTo                      string `gorm:"type:varchar(128);not null"`

	Subscenario *SubscenarioTransmissionPortfolio `gorm:"foreignKey:TransmissionPortfolioScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsTransmissionPortfolio) TableName() string {
	return "inputs_transmission_portfolios"
}

// InputsTransmissionCapacity holds specified capacity (tx_spec) or new-build
// vintage data (tx_new_lin) for a line in a period.
type InputsTransmissionCapacity struct {
	TransmissionCapacityScenarioID uint     `gorm:"primaryKey;autoIncrement:false"`
	TransmissionLine               string   `gorm:"primaryKey;type:varchar(128)"`
	Period                         int      `gorm:"primaryKey;autoIncrement:false"`
	MinMW                          *float64 `gorm:"column:min_mw"`
	MaxMW                          *float64 `gorm:"column:max_mw"`
	LifetimeYrs                    *float64
	FinancialLifetimeYrs           *float64
	AnnualizedRealCostPerMWYr      *float64 `gorm:"column:annualized_real_cost_per_mw_yr"`

	Subscenario *SubscenarioTransmissionCapacity `gorm:"foreignKey:TransmissionCapacityScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsTransmissionCapacity) TableName() string {
	return "inputs_transmission_capacities"
}

// InputsReserveProject enrolls a project in a reserve product.
type InputsReserveProject struct {
	ReserveScenarioID uint   `gorm:"primaryKey;autoIncrement:false"`
	ReserveType       string `gorm:"primaryKey;type:varchar(64)"`
	Project           string `gorm:"primaryKey;type:varchar(128)"`
	BalancingArea     string `gorm:"column:ba;type:varchar(128);not null"`
	Derate            *float64

	Subscenario *SubscenarioReserve `gorm:"foreignKey:ReserveScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsReserveProject) TableName() string { return "inputs_reserve_projects" }

// InputsReserveRequirement is a reserve requirement for a balancing area.
type InputsReserveRequirement struct {
	ReserveScenarioID uint    `gorm:"primaryKey;autoIncrement:false"`
	ReserveType       string  `gorm:"primaryKey;type:varchar(64)"`
	BalancingArea     string  `gorm:"column:ba;primaryKey;type:varchar(128)"`
	Timepoint         int     `gorm:"primaryKey;autoIncrement:false"`
	RequirementMW     float64 `gorm:"column:requirement_mw;not null"`

	Subscenario *SubscenarioReserve `gorm:"foreignKey:ReserveScenarioID;references:SubscenarioID"`
}

// TableName returns the table name for GORM.
func (InputsReserveRequirement) TableName() string { return "inputs_reserve_requirements" }
