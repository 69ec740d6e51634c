// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"

	"github.com/ManuGH/orgconsole/internal/resilience"
)

// CheckFunc adapts a ping style function into a Checker. A failing ping is
// reported with the status given by onFailure.
type CheckFunc struct {
	name      string
	onFailure Status
	ping      func(ctx context.Context) error
}

// NewCheckFunc returns a Checker that is unhealthy whenever ping fails.
func NewCheckFunc(name string, ping func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, onFailure: StatusUnhealthy, ping: ping}
}

// NewSoftCheckFunc returns a Checker that is only degraded when ping fails.
func NewSoftCheckFunc(name string, ping func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, onFailure: StatusDegraded, ping: ping}
}

func (c *CheckFunc) Name() string { return c.name }

func (c *CheckFunc) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: c.onFailure, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// BreakerChecker reports the circuit breaker guarding the organization API.
// An open breaker degrades the console but does not make it unready: the page
// still renders its error state.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker returns a Checker for cb.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: cb}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(context.Context) CheckResult {
	switch state := c.breaker.State(); state {
	case resilience.StateClosed:
		return CheckResult{Status: StatusHealthy, Message: string(state)}
	default:
		return CheckResult{Status: StatusDegraded, Message: string(state)}
	}
}
