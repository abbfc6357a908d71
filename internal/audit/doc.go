// Package audit persists append-only records of plans and mutation
// operations in SQLite. Records move through Pending, InProgress, and a
// terminal Completed, Failed, or RolledBack status; rows are never deleted,
// so the log doubles as a recovery journal and a dry-run replay source.
//
// Mutating methods take a *sql.Tx and never commit: the caller owns the
// transaction boundary, so a rollback after a mid-transaction failure leaves
// zero partial rows.
package audit
