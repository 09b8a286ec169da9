// Package myborrowings implements the My Borrowings query.
//
// It lists every loan of one user, active and returned, joined with the borrowed book
// and ordered newest first. Reads may be served by a replica.
package myborrowings
