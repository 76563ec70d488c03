// Package idempotency implements an in-memory guard against duplicate
// operations within a time window, used to absorb rapid repeated clicks on
// the same board action. It is a single-process mechanism; multi-instance
// deployments would need a shared store instead.
package idempotency
