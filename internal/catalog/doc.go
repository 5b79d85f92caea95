// Package catalog defines the domain model shared by every storage backend
// and write path: broadcast programs, their recordings on the SMB share,
// viewing history, remote share path rules, and the sparse patch structure
// used for recording lifecycle updates.
package catalog
