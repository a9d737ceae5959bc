// Package storage maps asset identities onto the on-disk cache tree.
//
// Every cached song lives in storageRoot/platform/artist/album/title/ and is
// made of up to three files sharing the sanitized title as basename: the audio
// payload, a .lrc lyrics file and a .jpg cover.
package storage
