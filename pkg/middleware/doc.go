// Package middleware provides HTTP middleware for authentication, request
// tracing and authorization guards.
//
// AuthMiddleware resolves bearer tokens to an actor access snapshot and
// stores it on the request context. GuardMiddleware wraps routes with the
// fail-closed authorization guards and is the layer that logs denials and
// counts decisions.
package middleware
