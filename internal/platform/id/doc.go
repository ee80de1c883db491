// Package id generates URL-safe identifiers for request correlation.
//
// Identifiers are UUIDv4 bytes encoded as lowercase base32 (RFC 4648) with no
// padding, giving 26-character strings safe for headers, logs and file paths.
package id
