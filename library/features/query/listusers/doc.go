// Package listusers implements the admin listing of all accounts, newest first.
// Password hashes are never serialized.
package listusers
