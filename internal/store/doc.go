// Package store defines the repository abstraction over the metadata store.
// Concrete backends live in the sqlite and postgres subpackages and are
// selected at startup by configuration.
package store
