// Package httputil provides shared HTTP response helpers and panic recovery
// middleware.
package httputil
