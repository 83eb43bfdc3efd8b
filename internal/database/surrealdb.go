package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/surrealdb/surrealdb.go"
)

// probeQuery is a no-op transaction used to detect transaction support
const probeQuery = "BEGIN TRANSACTION;\nRETURN 1;\nCOMMIT TRANSACTION;"

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config

	mu        sync.RWMutex
	supportTx bool
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	if cfg.TransactionMode == "" {
		cfg.TransactionMode = defaultTxMode
	}
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB and resolves transaction support
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db

	supported := false
	switch s.config.TransactionMode {
	case TxModeOn:
		supported = true
	case TxModeOff:
	default:
		// Probe failure is not a connection failure; it only disables transactions.
		supported = s.Execute(ctx, probeQuery, nil) == nil
	}

	s.mu.Lock()
	s.supportTx = supported
	s.mu.Unlock()
	return nil
}

// SupportsTransactions reports whether BeginTx is available
func (s *SurrealDB) SupportsTransactions() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.supportTx
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	_, err := s.db.Version(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} entry per statement
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, fmt.Errorf("%w: %s", ErrQuery, r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// QueryOne executes a query and returns a single result
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return firstRecord(results)
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// BeginTx starts a write-buffered transaction
func (s *SurrealDB) BeginTx(ctx context.Context, opts TxOptions) (Transaction, error) {
	if s.db == nil {
		return nil, ErrConnection
	}
	if !s.SupportsTransactions() {
		return nil, ErrTxUnsupported
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newSurrealTransaction(s), nil
}

// firstRecord unwraps the {status: "OK", result: [...]} wrapper of the first statement
func firstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	first := results[0]
	if resp, ok := first.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, ErrNotFound
				}
				return resultData[0], nil
			}
			// Scalar result
			return resp["result"], nil
		}
	}

	return first, nil
}

// SurrealTransaction implements Transaction on top of a Querier.
// Query and QueryOne read through immediately, so they do not observe
// mutations buffered by Execute. Mutations are sent as a single
// BEGIN/COMMIT block on Commit.
type SurrealTransaction struct {
	q       Querier
	builder *TxBuilder
	mu      sync.Mutex
	closed  bool
}

func newSurrealTransaction(q Querier) *SurrealTransaction {
	return &SurrealTransaction{q: q, builder: NewTxBuilder()}
}

func (t *SurrealTransaction) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if t.isClosed() {
		return nil, ErrTxClosed
	}
	return t.q.Query(ctx, query, vars)
}

func (t *SurrealTransaction) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	if t.isClosed() {
		return nil, ErrTxClosed
	}
	return t.q.QueryOne(ctx, query, vars)
}

func (t *SurrealTransaction) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTxClosed
	}
	t.builder.Add(query, vars)
	return nil
}

// Commit sends the buffered mutations atomically. An empty transaction commits trivially.
func (t *SurrealTransaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTxClosed
	}
	t.closed = true
	builder := t.builder
	t.builder = nil
	t.mu.Unlock()

	if _, err := ExecuteTransaction(ctx, t.q, builder); err != nil {
		return fmt.Errorf("%w: commit failed: %v", ErrQuery, err)
	}
	return nil
}

// Rollback discards buffered mutations. Calling it after Commit is a no-op.
func (t *SurrealTransaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.builder = nil
	return nil
}

func (t *SurrealTransaction) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Pending returns the number of buffered mutations
func (t *SurrealTransaction) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.builder == nil {
		return 0
	}
	return t.builder.Len()
}
