// Package entities defines the GORM models of the scenario database: the
// scenarios table, one subscenarios_<name> table plus one or more inputs_<name>
// tables per subscenario, result tables and bookkeeping tables.
//
// Subscenario ids are chosen by the user (they name CSV files), so their primary
// keys are never auto-incremented. Their primary key field is always named ID
// (with an explicit column) so that references from scenarios and inputs
// tables, whose fields carry the column name, resolve as belongs-to.
package entities
