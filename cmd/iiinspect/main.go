// Command iiinspect reflects Ingres and Vector catalogs.
//
// Build with the odbc tag to link the ODBC driver:
//
//	go build -tags odbc ./cmd/iiinspect
package main

import (
	"os"

	"github.com/syssam/actian/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
