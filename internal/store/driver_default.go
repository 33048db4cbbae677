//go:build !sqlite_vec

package store

import (
	_ "modernc.org/sqlite"
)

// Driver name for the pure-Go default build. modernc.org/sqlite needs no
// cgo and registers itself under this name via its blank import above.
const driverName = "sqlite"

// enableANN reports whether this build has sqlite-vec's SQL distance
// functions available. The pure-Go default always answers false and
// relies on SemanticSearch's in-Go scan.
const enableANN = false
