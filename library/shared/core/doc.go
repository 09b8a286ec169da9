// Package core contains the access rules and small value helpers shared by all library features.
//
// It has no infrastructure dependencies: an Actor describes who is acting, the Require* functions
// decide whether that actor may perform an operation, and Clock and NewID provide the timestamps
// and identifiers that commands are built with.
package core
