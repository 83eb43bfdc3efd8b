// Package service implements the business logic layer for the EventSphere API.
//
// The service package owns the event lifecycle rules, membership
// maintenance and the cascading deletes that keep events, users, tasks and
// archive links referentially consistent. Services sit between the HTTP
// handlers and the repository gateway.
//
// # Lifecycle Engine
//
// The lifecycle functions are pure. They take the event and the current
// time and return a decision:
//
//   - ValidateEventDates checks the grace window and duration bounds
//   - DetermineStatus derives the status an event should have now
//   - ValidateStatusTransition checks the edge table and date guards
//   - CanModifyDates applies the date lock for the actor's role
//   - ReconcileBatch reports stale statuses without touching its input
//
// # Transactions
//
// Multi-collection writes go through Coordinator.RunAtomic. When the store
// supports transactions the work runs in one and is committed or rolled
// back as a whole. Otherwise it runs directly and the result is marked
// BestEffort:
//
//	result, err := coordinator.DeleteEventCascade(ctx, eventID, actorID)
//	if err != nil {
//	    var aborted *TransactionAbortedError
//	    if errors.As(err, &aborted) && aborted.Partial() {
//	        // some writes may be visible
//	    }
//	}
//
// # Error Handling
//
// Services return domain-specific errors defined in errors.go:
//
//	var (
//	    ErrEventNotFound       = errors.New("event not found")
//	    ErrDateChangeForbidden = errors.New("insufficient role to modify event dates")
//	)
//
// Input problems are returned as *ValidationError, which matches
// ErrValidation with errors.Is.
package service
