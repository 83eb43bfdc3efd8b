// Package model defines domain entities and data structures for the EventSphere API.
//
// The model package contains the struct definitions for domain objects, request
// types, the role/permission authority and the HTTP error representation. Models
// are used across all layers of the application and perform no I/O.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - Event: A scheduled event with a lifecycle status and a member list
//   - User: Application user with per-event role memberships
//   - Task: Work item owned by an event, optionally assigned to a user
//   - ArchiveLink: Archived document link owned by an event
//
// Event.Users and User.Events are the two sides of one relation: every
// (userID, eventID, role) triple appears on both sides.
//
// # Roles and Permissions
//
// Two independent authorization views are defined in role.go:
//
//	model.HasRequiredRole(roles, model.RoleEventCoordinator) // hierarchy level
//	model.HasPermission(roles, model.PermCreateEvents)       // permission table
//
// The hierarchy levels and the permission table are maintained separately and
// are never derived from one another.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
