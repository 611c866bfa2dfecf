// Command genredb-etl extracts per-artist genre/style metadata from a
// catalog dump, checkpoints the work into batches, and merges and
// enriches the results.
//
// Exit status: 0 completed, 1 aborted, 3 completed with partial
// per-record errors.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mkessy/genre-db/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, cli.ErrPartialErrors) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
