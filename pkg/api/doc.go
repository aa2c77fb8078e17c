// Package api exposes the HTTP surface: group and member management,
// invitations, team assignments and actor introspection.
//
// Authorization happens entirely in the route table. Every guarded route is
// wrapped with a middleware.GuardMiddleware guard bound to the capability or
// role floor it requires; handlers assume the decision was already made.
package api
