/*
config.go - Daily capacity ceiling

The ceiling is a process-wide mutable scalar: the total installment
amount considered "normal" for one calendar day. It is advisory only -
the scheduler never enforces it, the capacity aggregator classifies
against it. Updates are atomic and immediately visible to subsequent
classification calls. Already-scheduled amounts are never re-validated
against a changed ceiling.
*/
package engine

import (
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultCeiling is the daily capacity used when none is configured.
var DefaultCeiling = decimal.NewFromInt(5000)

// Ceiling is a guarded mutable scalar shared by classification calls.
type Ceiling struct {
	mu    sync.RWMutex
	value decimal.Decimal
}

// NewCeiling creates a ceiling with the given initial value, falling
// back to DefaultCeiling when value is not positive.
func NewCeiling(value decimal.Decimal) *Ceiling {
	if !value.IsPositive() {
		value = DefaultCeiling
	}
	return &Ceiling{value: value}
}

// Value returns the current ceiling.
func (c *Ceiling) Value() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set updates the ceiling. Rejects non-positive values.
func (c *Ceiling) Set(value decimal.Decimal) error {
	if !value.IsPositive() {
		return ErrInvalidAmount
	}
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
	return nil
}
