// Package middleware provides HTTP middleware for the EventSphere API.
//
// # Available Middleware
//
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: structured access log per request
//   - Recovery: converts panics into a 500 problem response
//   - Auth: bearer token validation and user loading
//   - RequirePermission, RequireRole, RequireAdmin, RequireManagement:
//     role gates evaluated over every role the caller holds
//
// Gates must run after Auth:
//
//	h := middleware.Chain(handler,
//	    middleware.Auth(tokens, users),
//	    middleware.RequirePermission(model.PermDeleteEvents),
//	)
//
// Handlers read the caller with CurrentUser(ctx).
package middleware
