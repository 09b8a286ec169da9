// Package removebook implements the Remove Book use case.
//
// Librarians and admins remove a catalog entry. Removal is refused while any borrowed or overdue
// loan references the book. The storage layer serializes the removal with concurrent borrows,
// so a copy cannot be lent out of a book that is being removed.
package removebook
