// Package cache is the background media-caching layer.
//
// A Service answers requests for audio, lyrics and covers from the on-disk
// cache tree when it can, and otherwise relays the upstream bytes to the
// client while a Coordinator persists a full copy in the background.
// The Coordinator runs at most one transfer per destination path and
// retries failed attempts with exponential backoff. Progress is published
// as ProgressEvent values and recorded by the Registry for polling clients.
package cache
