// Package postgres contains the PostgreSQL implementations of the store
// interfaces. All implementations accept a store.DBTX so they can run either
// on the shared connection pool or inside a caller-managed transaction, and
// all database errors are passed through MapError so callers only see the
// store package's sentinel errors.
package postgres
