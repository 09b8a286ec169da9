// Package updateuser implements the Update User use case: admins change the name, email or role of an account.
package updateuser
