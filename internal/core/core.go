// Package core declares the model components every scenario has regardless of
// which subtypes it uses: the temporal structure and the load zones. It also
// names the shared sets, params and expressions subtype modules read.
package core

import (
	"github.com/gridforge/gridforge/internal/logger"
)

// Input files
const (
	PeriodsFile    = "periods.tab"
	TimepointsFile = "timepoints.tab"
	LoadZonesFile  = "load_zones.tab"
	LoadFile       = "load_mw.tab"
	ProjectsFile   = "projects.tab"
	TxLinesFile    = "transmission_lines.tab"
)

// Sets
const (
	SetPeriods    = "PERIODS"
	SetTimepoints = "TMPS"
	SetLoadZones  = "LOAD_ZONES"
	SetProjects   = "PROJECTS"
	SetTxLines    = "TX_LINES"

	SetProjectOperationalPeriods    = "PRJ_OPR_PRDS"
	SetProjectFinancialPeriods      = "PRJ_FIN_PRDS"
	SetProjectOperationalTimepoints = "PRJ_OPR_TMPS"
	SetNewBuildVintages             = "PRJ_NEW_BUILD_VNTS"
	SetTxOperationalPeriods         = "TX_OPR_PRDS"
	SetTxOperationalTimepoints      = "TX_OPR_TMPS"
)

// Params
const (
	ParamPeriodStartYear     = "period_start_year"
	ParamPeriodEndYear       = "period_end_year"
	ParamDiscountFactor      = "discount_factor"
	ParamYearsRepresented    = "number_years_represented"
	ParamTimepointPeriod     = "period_of_timepoint"
	ParamTimepointWeight     = "timepoint_weight"
	ParamLoad                = "load_mw"
	ParamUnservedEnergyPrice = "unserved_energy_penalty_per_mwh"
	ParamOvergenerationPrice = "overgeneration_penalty_per_mwh"
)

// Aggregate expression families
const (
	ExprCapacity            = "Capacity_MW"
	ExprEnergyCapacity      = "Energy_Capacity_MWh"
	ExprNewCapacity         = "New_Capacity_MW"
	ExprCapacityCost        = "Capacity_Cost"
	ExprFixedCost           = "Fixed_Cost"
	ExprTotalNewCapacity    = "Total_New_Capacity_MW"
	ExprPowerProvision      = "Power_Provision_MW"
	ExprVariableCost        = "Variable_Cost"
	ExprTxMaxCapacity       = "Tx_Max_Capacity_MW"
	ExprTxMinCapacity       = "Tx_Min_Capacity_MW"
	ExprTxCapacityCost      = "Tx_Capacity_Cost"
	ExprTransmitPower       = "Transmit_Power_MW"
	ExprCapacityCostPeriod  = "Total_Capacity_Costs"
	ExprFixedCostPeriod     = "Total_Fixed_Costs"
	ExprTxCapacityCostTotal = "Total_Tx_Capacity_Costs"
	ExprVariableCostTotal   = "Total_Variable_OM_Cost"
	ExprZonePower           = "Power_Production_in_Zone_MW"
	ExprZoneTransmission    = "Transmission_Net_Import_MW"
	ExprPenaltyCosts        = "Total_Penalty_Costs"
)

// Default penalties applied when a load zone leaves them unset.
const (
	DefaultUnservedEnergyPrice = 10000.0
	DefaultOvergenerationPrice = 10000.0
)

// GetLogger returns the core package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("core")
}
