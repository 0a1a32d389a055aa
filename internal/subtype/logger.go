package subtype

import "github.com/gridforge/gridforge/internal/logger"

// GetLogger returns the subtype package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("subtype")
}
