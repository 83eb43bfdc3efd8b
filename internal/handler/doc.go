// Package handler provides HTTP request handlers for the EventSphere API.
//
// Handlers are thin: they decode the request, call one service method and
// write the result. Permission gates are applied per route in NewRouter, so
// handlers assume an authenticated caller.
//
// # Response Format
//
//   - WriteData: {"data": ...} envelope for successful responses
//   - WriteError: RFC 9457 Problem Details
//
// Service errors are translated by MapServiceError.
package handler
