//go:build sqlite_vec && cgo

package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	// Register sqlite-vec as an auto-loadable extension with the mattn
	// cgo driver and route Open through it.
	vec.Auto()
	driverName = "sqlite3"
}
