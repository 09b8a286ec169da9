// Package httpapi serves the library over a JSON REST API.
//
// Routes are registered on a gorilla/mux router. Every request passes panic recovery, request logging,
// the request timeout and token authentication, in that order. Routes that need an account or a role
// add the matching guard. Errors are rendered as {"message": "...", "code": "..."} where code is the
// stable ledger.ErrorCode of the failure.
package httpapi
