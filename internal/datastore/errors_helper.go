package datastore

import (
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/gridforge/gridforge/internal/errors"
)

// MySQL server error numbers for foreign key violations.
const (
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
	mysqlErrDupEntry        = 1062
)

// dbError wraps a database error with datastore context. Foreign key
// violations are categorized as referential-integrity errors.
func dbError(err error, operation, priority string, context ...any) error {
	if err == nil {
		return nil
	}

	category := errors.CategoryDatabase
	if isForeignKeyViolation(err) {
		category = errors.CategoryIntegrity
	} else if isUniqueViolation(err) {
		category = errors.CategoryConflict
	}

	builder := errors.New(fmt.Errorf("%s: %w", operation, err)).
		Component("datastore").
		Category(category).
		Priority(priority).
		Context("operation", operation)

	for i := 0; i+1 < len(context); i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// isForeignKeyViolation reports whether err is a foreign key constraint
// failure from either backend.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrRowIsReferenced || mysqlErr.Number == mysqlErrNoReferencedRow
	}
	return false
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDupEntry
	}
	return false
}
