// Package allborrowings implements the All Borrowings query for librarians and admins.
//
// Every loan is joined with its book and its user and ordered newest first.
package allborrowings
