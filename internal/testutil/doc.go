// Package testutil provides deterministic collaborators for tests: a
// scripted query service and a never-exhausted run id generator.
package testutil
