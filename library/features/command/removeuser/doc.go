// Package removeuser implements the Remove User use case.
//
// Admins delete an account. Deletion is refused while the user holds a borrowed or overdue loan,
// and the storage layer serializes it with concurrent borrows by the same user.
package removeuser
