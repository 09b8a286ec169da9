// Package recommendations implements the Recommendations query: a random selection from the catalog.
package recommendations
