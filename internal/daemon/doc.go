// Package daemon wires the store, the SMB session, the background job worker
// and the HTTP API into a single-instance process guarded by a lock file.
package daemon
