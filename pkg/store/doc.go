// Package store persists users, groups, memberships, invitations, team
// assignments and API tokens, and assembles the access snapshots the
// authorization guards consume.
//
// The SQL sticks to the subset both PostgreSQL and SQLite accept so the
// migrations and queries run unchanged against an in-memory database in
// tests. AccessCache adds an optional two-tier (LRU + Redis) cache in front
// of GetUserWithAccess.
package store
