// Package listbooks implements the catalog listing with optional search and genre filters.
//
// Search matches title, author or isbn, the genre filter matches the genre. Both are
// case-insensitive substring matches. Books are ordered newest first.
package listbooks
