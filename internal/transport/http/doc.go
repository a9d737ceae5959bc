// Package http provides the HTTP plumbing shared by the upstream client,
// the background downloader and the streaming proxy: round trippers for
// debug logging and User-Agent injection, and client constructors with
// the timeouts each caller needs.
package http
