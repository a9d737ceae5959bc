// Package upstream is the client for the remote music API that tunestash caches.
// It fetches song metadata (cached in memory with an LRU), resolves audio and
// cover redirects without following them, and downloads plain-text lyrics.
package upstream
