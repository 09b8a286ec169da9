// Package sweeper periodically marks loans overdue.
package sweeper
