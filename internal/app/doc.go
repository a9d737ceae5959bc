// Package app wires configuration, the upstream client, the caching service
// and the HTTP server together for each CLI command.
package app
