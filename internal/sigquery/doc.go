// Package sigquery provides an abstract filter representation for querying
// archived trace changes.
//
// The filter IR is the boundary between filter construction (CLI flags,
// future scenario assertions) and storage backends. A filter describes which
// change records to return without committing to any query language, so a
// backend other than SQLite can compile the same filters later.
//
// Filters are sealed: only types in this package implement Filter, which
// keeps backend type switches exhaustive.
package sigquery
