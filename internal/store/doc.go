// Package store defines the persistence interfaces for the task board's
// entities along with transaction helpers and the sentinel errors shared by
// all store implementations. Concrete PostgreSQL implementations live in
// internal/platform/postgres.
package store
