// Package database provides the SurrealDB connection used by the EventSphere API.
//
// The Database interface exposes three query methods through Querier:
//   - Query: one {status, result} entry per statement
//   - QueryOne: the first record of the first statement
//   - Execute: no return value (for CREATE/UPDATE/DELETE mutations)
//
// # Transactions
//
// Whether the connected deployment can run multi-statement transactions is
// resolved once at Connect (see Config.TransactionMode) and reported by
// SupportsTransactions. BeginTx returns ErrTxUnsupported when it cannot.
//
// Transactions are write-buffered. Reads issued through a Transaction run
// immediately and do not observe its pending mutations; mutations are sent
// as a single BEGIN/COMMIT block on Commit. Rollback discards them.
//
// TxOptions default to primary reads, local read concern and majority
// write concern. Any other read preference is rejected with
// ErrUnsupportedTxOption.
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint violation
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query or commit failed
//   - ErrTxUnsupported, ErrTxClosed, ErrUnsupportedTxOption: transaction misuse
package database
