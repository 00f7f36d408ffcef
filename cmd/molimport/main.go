// molimport is the offline CLI: it validates CSV datasets against the
// property catalog without a running server.
package main

import (
	"fmt"
	"os"

	"github.com/chemlattice/molimport/internal/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
