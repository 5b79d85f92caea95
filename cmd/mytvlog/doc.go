// Command mytvlog is the CLI companion of mytvlogd. It talks to the daemon's
// HTTP API and renders recordings, imports, and validation runs.
package main
