// Package api defines the HTTP payload types and the service layer the
// daemon's API server calls into. Timestamps are rendered in JST regardless
// of the offset the caller supplied.
package api
