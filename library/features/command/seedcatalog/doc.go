// Package seedcatalog implements the Seed Catalog use case.
//
// It fills an empty installation with a small demo catalog. Books whose isbn already exists are
// skipped, so seeding twice changes nothing. Seeding is a maintenance operation: the callers
// (the CLI and the admin route) authorize it.
package seedcatalog
