// Package api exposes the caching service over HTTP.
//
// Every JSON response uses the {code, message, data} envelope. Audio, lyrics
// and cover endpoints answer with the raw asset instead.
package api
