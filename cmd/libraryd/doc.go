// Command libraryd runs and administers the library ledger.
//
// Every subcommand reads its configuration from LIBRARY_* environment variables,
// optionally loaded from env files (see --env-file):
//
//	libraryd serve           # HTTP API plus the periodic overdue sweep
//	libraryd migrate         # create tables or collections and indexes
//	libraryd seed            # add the sample catalog, skipping known ISBNs
//	libraryd sweep-overdue   # mark every loan past its due date as overdue
//	libraryd audit           # report inventory drift, exits non-zero on drift
//	libraryd create-admin    # create an admin account
package main
