// Package sweepoverdue implements the Sweep Overdue use case.
//
// Every borrowed loan whose due date lies before the sweep time transitions to overdue.
// The copies stay unavailable, so the book counters are not touched. A sweep that
// transitions nothing is reported as idempotent.
package sweepoverdue
