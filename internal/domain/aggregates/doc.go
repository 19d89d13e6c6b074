// Package aggregates defines write contracts for consistency boundaries and
// the error model shared by every write path.
//
// An aggregate owns its DB transaction, checks invariants against the rows it
// is about to change, and surfaces failures as *Error values carrying a stable
// Code that transport layers map to status codes.
package aggregates
