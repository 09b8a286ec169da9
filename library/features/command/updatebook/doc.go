// Package updatebook implements the Update Book use case.
//
// Librarians and admins change catalog attributes. A change of the total copy count shifts the
// available count by the same delta in one atomic step, so copies on loan are never lost and the
// available count never drops below zero. An update without fields changes nothing and returns
// the current book.
package updatebook
