package conf

import (
	"fmt"
	"slices"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateDatabaseSettings(&settings.Database)...)
	ve.Errors = append(ve.Errors, validateBuildSettings(&settings.Build)...)
	ve.Errors = append(ve.Errors, validateRebuildSettings(&settings.Rebuild)...)

	if settings.Scenarios.Directory == "" {
		ve.Errors = append(ve.Errors, "scenarios.directory must not be empty")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) []string {
	var errs []string

	switch settings.Driver {
	case DriverSQLite:
		if settings.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path must be set when driver is sqlite")
		}
	case DriverMySQL:
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			errs = append(errs, "database.mysql.host and database.mysql.database must be set when driver is mysql")
		}
		if settings.MySQL.Username == "" {
			errs = append(errs, "database.mysql.username must be set when driver is mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q, got %q", DriverSQLite, DriverMySQL, settings.Driver))
	}

	return errs
}

func validateBuildSettings(settings *BuildSettings) []string {
	var errs []string

	if settings.Subproblem < 1 {
		errs = append(errs, "build.subproblem must be at least 1")
	}
	if settings.Stage < 1 {
		errs = append(errs, "build.stage must be at least 1")
	}
	if !slices.Contains([]string{"none", "high", "mid", "low"}, settings.FailOn) {
		errs = append(errs, fmt.Sprintf("build.fail_on must be one of none, high, mid, low, got %q", settings.FailOn))
	}

	return errs
}

func validateRebuildSettings(settings *RebuildSettings) []string {
	if settings.Strategy != StrategyNullify && settings.Strategy != StrategyDefer {
		return []string{fmt.Sprintf("rebuild.strategy must be %q or %q, got %q", StrategyNullify, StrategyDefer, settings.Strategy)}
	}
	return nil
}
