package conf

import "github.com/gridforge/gridforge/internal/logger"

// GetLogger returns the config package logger.
// It is fetched on each call so it follows a later logger.SetGlobal.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
