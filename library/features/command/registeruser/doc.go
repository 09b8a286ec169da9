// Package registeruser implements the Register User use case.
//
// Anyone may register a student account. Accounts with the librarian or admin role can only be
// created by an admin. The email is normalized and must be unique, the password is hashed before
// it reaches the storage layer and never leaves the process.
package registeruser
