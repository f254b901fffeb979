// Package store persists the latest submission snapshot under one well-known
// key. Backends hold raw bytes; the Store owns encoding and the
// overwrite-latest policy.
package store
