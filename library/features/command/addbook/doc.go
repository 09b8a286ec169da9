// Package addbook implements the Add Book use case.
//
// Librarians and admins add a catalog entry. All copies start available and the borrow count
// starts at zero. A missing copy count defaults to one. The isbn must be unique in the catalog.
package addbook
