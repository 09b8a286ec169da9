// Package userprofile implements the User Profile query behind the "me" endpoint.
package userprofile
