// Package repository implements the data access layer for the EventSphere API.
//
// Gateway is the persistence boundary the service layer depends on. It
// exposes the four collections (events, users, tasks, archive links) and
// can open a transaction whose Collections are bound to it:
//
//	gw := repository.NewSurrealGateway(db)
//	tx, err := gw.BeginTx(ctx, database.DefaultTxOptions())
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback(ctx)
//	if err := tx.Tasks().DeleteByEvent(ctx, eventID); err != nil {
//	    return err
//	}
//	return tx.Commit(ctx)
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax
//   - type::record() for record ids
//   - time::now() for automatic timestamps
//
// Every write goes through Querier.Execute, creates included: record ids
// are generated client side (newRecordID) so a CREATE needs no result.
// Inside a transaction all writes are therefore buffered until Commit and
// dropped by Rollback. Reads inside a transaction do not see buffered writes.
//
// Get methods return nil, nil for a missing record. A unique email
// violation is reported as database.ErrDuplicate.
//
// The memory subpackage implements the same Gateway in process for tests
// and single-node development.
package repository
