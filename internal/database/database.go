package database

import (
	"context"
	"errors"
	"fmt"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g., duplicate email).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")

	// ErrTxUnsupported indicates the connected deployment cannot run multi-statement transactions.
	ErrTxUnsupported = errors.New("transactions not supported")

	// ErrTxClosed indicates Commit or a statement was issued after the transaction finished.
	ErrTxClosed = errors.New("transaction already closed")

	// ErrUnsupportedTxOption indicates TxOptions the backend cannot honor.
	ErrUnsupportedTxOption = errors.New("unsupported transaction option")
)

// Querier is the statement surface shared by a connection and a transaction
type Querier interface {
	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Database defines the interface for database operations
type Database interface {
	Querier

	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// SupportsTransactions reports the capability resolved at Connect time
	SupportsTransactions() bool

	// BeginTx starts a transaction. Returns ErrTxUnsupported when
	// SupportsTransactions is false.
	BeginTx(ctx context.Context, opts TxOptions) (Transaction, error)
}

// Transaction represents a database transaction.
// Query and QueryOne run immediately. Execute is buffered and every
// buffered statement is applied together at Commit, so writes must go
// through Execute to be covered by the transaction.
type Transaction interface {
	Querier
	Commit(ctx context.Context) error
	Rollback() error
}

// Read preference, read concern and write concern values
const (
	ReadPrimary   = "primary"
	ConcernLocal  = "local"
	ConcernMajor  = "majority"
	TxModeAuto    = "auto"
	TxModeOn      = "on"
	TxModeOff     = "off"
	defaultTxMode = TxModeAuto
)

// TxOptions configure a transaction. The zero value is not valid; use DefaultTxOptions.
type TxOptions struct {
	ReadPreference string
	ReadConcern    string
	WriteConcern   string
}

// DefaultTxOptions returns primary reads, local read concern and majority write concern
func DefaultTxOptions() TxOptions {
	return TxOptions{
		ReadPreference: ReadPrimary,
		ReadConcern:    ConcernLocal,
		WriteConcern:   ConcernMajor,
	}
}

// Validate rejects options a transaction cannot run with.
// Reads inside a transaction must target the primary.
func (o TxOptions) Validate() error {
	if o.ReadPreference != ReadPrimary {
		return fmt.Errorf("%w: read preference %q", ErrUnsupportedTxOption, o.ReadPreference)
	}
	switch o.ReadConcern {
	case ConcernLocal, ConcernMajor:
	default:
		return fmt.Errorf("%w: read concern %q", ErrUnsupportedTxOption, o.ReadConcern)
	}
	if o.WriteConcern != ConcernMajor {
		return fmt.Errorf("%w: write concern %q", ErrUnsupportedTxOption, o.WriteConcern)
	}
	return nil
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string

	// TransactionMode is auto, on or off. Auto probes the server at Connect.
	TransactionMode string
}
