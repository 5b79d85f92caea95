// Package smbfs provides access to recording files on SMB shares. Paths use
// the //server/root/rest shape throughout; the root segment names the share.
package smbfs
