// Command datatype generates Go datatypes from definition files.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/syssam/datatype/cmd/datatype/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cmd.ErrStale) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
