//go:build odbc

package main

// Registers the "odbc" database/sql driver, the default iiinspect driver.
import _ "github.com/alexbrainman/odbc"
