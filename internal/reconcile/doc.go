// Package reconcile contains the reconciliation engine: bulk import of
// recorder output, recording lifecycle patches, and the file-path repair
// pass. All of it is written against the store and file store abstractions;
// nothing here knows which backend is underneath.
package reconcile
