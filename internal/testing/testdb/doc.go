// Package testdb connects tests to a real SurrealDB instance.
//
// Tests that need the server call New, which skips the test unless
// TEST_DB_HOST is set:
//
//	func TestSurrealGateway(t *testing.T) {
//	    tdb := testdb.New(t)
//	    gw := repository.NewSurrealGateway(tdb.DB)
//	    ...
//	}
//
// Every TestDB gets its own namespace with migrations/*.surql applied, and
// the namespace is removed in t.Cleanup. TEST_DB_TRANSACTIONS selects the
// transaction mode (auto, on, off) so both cascade paths can be exercised
// against one server.
package testdb
