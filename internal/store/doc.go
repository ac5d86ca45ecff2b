// Package store archives recorded traces in SQLite. A saved trace is the
// sparse change sequence a session captured plus enough metadata (design
// name and content hash, backend, timescale) to know what produced it; reads
// return changes in their recorded order so a stored trace renders to the
// same VCD text it was captured as.
//
// The database is opened with WAL mode and a single writer connection.
package store
