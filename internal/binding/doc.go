// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package binding wraps remote operations in observable request lifecycles.
//
// A Query runs one read and moves from loading to either an error or data.
// A Mutation dispatches writes on demand and reports the outcome of the most
// recently dispatched call, numbered so observers can react exactly once per
// outcome. Both can be closed; results that arrive afterwards are dropped.
package binding
