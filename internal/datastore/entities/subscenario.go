package entities

// SubscenarioTemporal describes a set of periods and timepoints.
type SubscenarioTemporal struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:temporal_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioTemporal) TableName() string { return "subscenarios_temporal" }

// SubscenarioLoad describes load zones and their load profiles.
type SubscenarioLoad struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:load_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioLoad) TableName() string { return "subscenarios_load" }

// SubscenarioProjectPortfolio describes which projects exist and their capacity types.
type SubscenarioProjectPortfolio struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:project_portfolio_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioProjectPortfolio) TableName() string { return "subscenarios_project_portfolios" }

// SubscenarioProjectOperationalChars describes operational types and parameters.
type SubscenarioProjectOperationalChars struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:project_operational_chars_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioProjectOperationalChars) TableName() string {
	return "subscenarios_project_operational_chars"
}

// SubscenarioProjectSpecifiedCapacity describes pre-existing capacity.
type SubscenarioProjectSpecifiedCapacity struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:project_specified_capacity_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioProjectSpecifiedCapacity) TableName() string {
	return "subscenarios_project_specified_capacity"
}

// SubscenarioProjectNewCost describes new-build vintages and costs.
type SubscenarioProjectNewCost struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:project_new_cost_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioProjectNewCost) TableName() string { return "subscenarios_project_new_cost" }

// SubscenarioTransmissionPortfolio describes transmission lines and their types.
type SubscenarioTransmissionPortfolio struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:transmission_portfolio_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioTransmissionPortfolio) TableName() string {
	return "subscenarios_transmission_portfolios"
}

// SubscenarioTransmissionCapacity describes line capacities and new-build costs.
type SubscenarioTransmissionCapacity struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:transmission_capacity_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioTransmissionCapacity) TableName() string {
	return "subscenarios_transmission_capacities"
}

// SubscenarioReserve describes reserve participation and requirements.
type SubscenarioReserve struct {
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:reserve_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioReserve) TableName() string { return "subscenarios_reserves" }

// SubscenarioProjectVariableProfile is a project-level subscenario: ids are
// scoped to one project and scenarios do not reference them directly.
type SubscenarioProjectVariableProfile struct {
	ProjectName   string `gorm:"primaryKey;type:varchar(128);column:project"`
	SubscenarioID uint   `gorm:"primaryKey;autoIncrement:false;column:variable_profile_scenario_id"`
	Name          string `gorm:"type:varchar(128)"`
	Description   string `gorm:"type:text"`
}

// TableName returns the table name for GORM.
func (SubscenarioProjectVariableProfile) TableName() string {
	return "subscenarios_project_variable_profiles"
}
