package entities

import "time"

// Scenario composes subscenarios into a runnable scenario. Every subscenario
// reference is a nullable foreign key; a NULL reference means the feature's
// inputs are not used (or, transiently, that a rebuild has nulled it).
type Scenario struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(128);not null;uniqueIndex"`
	Description string `gorm:"type:text"`

	OfTransmission bool `gorm:"not null;default:false"`
	OfReserves     bool `gorm:"not null;default:false"`

	TemporalScenarioID                 *uint `gorm:"index"`
	LoadScenarioID                     *uint `gorm:"index"`
	ProjectPortfolioScenarioID         *uint `gorm:"index"`
	ProjectOperationalCharsScenarioID  *uint `gorm:"index"`
	ProjectSpecifiedCapacityScenarioID *uint `gorm:"index"`
	ProjectNewCostScenarioID           *uint `gorm:"index"`
	TransmissionPortfolioScenarioID    *uint `gorm:"index"`
	TransmissionCapacityScenarioID     *uint `gorm:"index"`
	ReserveScenarioID                  *uint `gorm:"index"`

	Temporal                 *SubscenarioTemporal                 `gorm:"foreignKey:TemporalScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	Load                     *SubscenarioLoad                     `gorm:"foreignKey:LoadScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	ProjectPortfolio         *SubscenarioProjectPortfolio         `gorm:"foreignKey:ProjectPortfolioScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	ProjectOperationalChars  *SubscenarioProjectOperationalChars  `gorm:"foreignKey:ProjectOperationalCharsScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	ProjectSpecifiedCapacity *SubscenarioProjectSpecifiedCapacity `gorm:"foreignKey:ProjectSpecifiedCapacityScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	ProjectNewCost           *SubscenarioProjectNewCost           `gorm:"foreignKey:ProjectNewCostScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	TransmissionPortfolio    *SubscenarioTransmissionPortfolio    `gorm:"foreignKey:TransmissionPortfolioScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	TransmissionCapacity     *SubscenarioTransmissionCapacity     `gorm:"foreignKey:TransmissionCapacityScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`
	Reserve                  *SubscenarioReserve                  `gorm:"foreignKey:ReserveScenarioID;references:SubscenarioID;constraint:OnUpdate:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (Scenario) TableName() string {
	return "scenarios"
}
