// Package middleware wraps definition stores with cross-cutting behavior:
// refusing invalid definitions and invalidating compiled automata after writes.
package middleware
