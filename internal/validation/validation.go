// Package validation collects input data problems so one run reports all of them.
// Structural problems (unknown subtypes, malformed configuration) are returned as
// errors by the packages that detect them and never end up here.
package validation

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gridforge/gridforge/internal/errors"
)

// Severity ranks a validation problem.
type Severity string

const (
	High Severity = "High"
	Mid  Severity = "Mid"
	Low  Severity = "Low"
)

// rank orders severities; higher is worse.
func (s Severity) rank() int {
	switch s {
	case High:
		return 3
	case Mid:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// ParseSeverity parses a severity threshold. "none" and "" disable blocking.
func ParseSeverity(s string) (Severity, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return "", false, nil
	case "high":
		return High, true, nil
	case "mid":
		return Mid, true, nil
	case "low":
		return Low, true, nil
	default:
		return "", false, fmt.Errorf("invalid severity %q (must be none, high, mid or low)", s)
	}
}

// AtLeast reports whether s is as severe as threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.rank() >= threshold.rank()
}

// Error is one data problem found while validating inputs.
type Error struct {
	Component   string
	Table       string
	Severity    Severity
	Description string
	Timestamp   time.Time
}

func (e Error) String() string {
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Component, e.Table, e.Description)
}

// Collector accumulates validation errors. The zero value is ready to use.
type Collector struct {
	mu     sync.Mutex
	errors []Error
	now    func() time.Time
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a problem.
func (c *Collector) Add(component, table string, severity Severity, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	c.errors = append(c.errors, Error{
		Component:   component,
		Table:       table,
		Severity:    severity,
		Description: description,
		Timestamp:   now(),
	})
}

// Addf records a problem with a formatted description.
func (c *Collector) Addf(component, table string, severity Severity, format string, args ...any) {
	c.Add(component, table, severity, fmt.Sprintf(format, args...))
}

// Errors returns collected errors, most severe first, stable within a severity.
func (c *Collector) Errors() []Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := slices.Clone(c.errors)
	slices.SortStableFunc(out, func(a, b Error) int {
		return b.Severity.rank() - a.Severity.rank()
	})
	return out
}

// Len returns the number of collected errors.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// CountBySeverity returns per-severity totals.
func (c *Collector) CountBySeverity() map[Severity]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[Severity]int)
	for _, e := range c.errors {
		counts[e.Severity]++
	}
	return counts
}

// Blocking returns the errors at or above threshold.
func (c *Collector) Blocking(threshold Severity) []Error {
	var out []Error
	for _, e := range c.Errors() {
		if e.Severity.AtLeast(threshold) {
			out = append(out, e)
		}
	}
	return out
}

// BlockingError is returned when validation found problems at or above the
// configured threshold.
type BlockingError struct {
	Threshold Severity
	Errors    []Error
}

func (e *BlockingError) Error() string {
	return fmt.Sprintf("%d validation error(s) at or above %s severity, first: %s",
		len(e.Errors), e.Threshold, e.Errors[0])
}

// ErrorCategory marks blocking findings as validation failures.
func (e *BlockingError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// Check returns a BlockingError if any collected error reaches threshold.
func (c *Collector) Check(threshold Severity) error {
	blocking := c.Blocking(threshold)
	if len(blocking) == 0 {
		return nil
	}
	return &BlockingError{Threshold: threshold, Errors: blocking}
}
