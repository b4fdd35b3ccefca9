// Package types defines the Item and Edge entities, the status state
// machine, query filters, and standard errors for the Engram task graph.
package types
