// Package auth authenticates library accounts.
//
// Passwords are hashed with bcrypt. Sessions are stateless HS256 JSON Web Tokens whose subject is the user id.
// The role is not part of the token: every request loads the account, so role changes and removed
// accounts take effect immediately.
package auth
