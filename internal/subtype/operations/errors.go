package operations

import (
	"fmt"

	"github.com/gridforge/gridforge/internal/errors"
)

// ReserveNotSupportedError reports a reserve enrollment for a project whose
// operational type cannot vary its output.
type ReserveNotSupportedError struct {
	OperationalType string
	Project         string
}

func (e *ReserveNotSupportedError) Error() string {
	return fmt.Sprintf("project %s: operational type %s cannot provide reserves", e.Project, e.OperationalType)
}

// ErrorCategory marks the enrollment as a configuration problem.
func (e *ReserveNotSupportedError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}
